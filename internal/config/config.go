// Package config provides configuration management using viper.
// It supports loading from YAML files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stockle-bot/internal/chart"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Log       LogConfig       `mapstructure:"log"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Stockle   StockleConfig   `mapstructure:"stockle"`
	Ticker    TickerConfig    `mapstructure:"ticker"`
	Chart     ChartConfig     `mapstructure:"chart"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token       string        `mapstructure:"token"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// StockleConfig holds game configuration.
type StockleConfig struct {
	MaxGuesses     int           `mapstructure:"max_guesses"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	Candidates     []string      `mapstructure:"candidates"`
}

// TickerConfig holds the company-profile API configuration.
type TickerConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Exchanges []string      `mapstructure:"exchanges"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ChartConfig holds chart image configuration.
type ChartConfig struct {
	URLTemplate      string        `mapstructure:"url_template"`
	CropTop          int           `mapstructure:"crop_top"`
	Timeout          time.Duration `mapstructure:"timeout"`
	DefaultTimeframe string        `mapstructure:"default_timeframe"`
}

// DefaultCandidates are four-letter NASDAQ tickers used as answers when none are configured.
var DefaultCandidates = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "META", "GOOG", "TSLA", "AVGO",
	"COST", "NFLX", "ADBE", "CSCO", "INTC", "QCOM", "AMAT", "INTU",
	"ISRG", "BKNG", "SBUX", "GILD", "MDLZ", "ADSK", "PYPL", "MRVL",
	"ORLY", "CTAS", "PAYX", "ROST", "IDXX", "FAST", "EBAY", "ZBRA",
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
// A .env file in the working directory, if present, is loaded into the
// environment first; variables already set take precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, TICKER_API_KEY, STOCKLE_MAX_GUESSES
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{"bot.token", "ticker.api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide everything
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.poll_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("stockle.max_guesses", 6)
	v.SetDefault("stockle.resolve_timeout", "5s")
	v.SetDefault("stockle.idle_ttl", "24h")
	v.SetDefault("stockle.sweep_interval", "10m")
	v.SetDefault("stockle.candidates", DefaultCandidates)

	v.SetDefault("ticker.base_url", "https://financialmodelingprep.com/api/v3")
	v.SetDefault("ticker.exchanges", []string{"NASDAQ"})
	v.SetDefault("ticker.timeout", "5s")

	v.SetDefault("chart.url_template", chart.DefaultURLTemplate)
	v.SetDefault("chart.crop_top", chart.DefaultCropTop)
	v.SetDefault("chart.timeout", "10s")
	v.SetDefault("chart.default_timeframe", "d")
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Stockle.MaxGuesses <= 0 {
		return fmt.Errorf("stockle.max_guesses must be positive, got %d", c.Stockle.MaxGuesses)
	}
	if len(c.Stockle.Candidates) == 0 {
		return errors.New("stockle.candidates must not be empty")
	}
	if c.Chart.CropTop < 0 {
		return fmt.Errorf("chart.crop_top must not be negative, got %d", c.Chart.CropTop)
	}
	return nil
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
