// Package main is the entry point for the Stockle Telegram bot.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stockle-bot/internal/bot"
	"stockle-bot/internal/chart"
	"stockle-bot/internal/config"
	"stockle-bot/internal/game/stockle"
	"stockle-bot/internal/ticker"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	configureLogging(&cfg.Log)
	log.Info().Msg("Configuration loaded successfully")

	if cfg.Ticker.APIKey == "" {
		log.Warn().Msg("ticker.api_key is empty; profile lookups will likely be rejected")
	}

	tickers := ticker.New(&ticker.Config{
		BaseURL:   cfg.Ticker.BaseURL,
		APIKey:    cfg.Ticker.APIKey,
		Exchanges: cfg.Ticker.Exchanges,
		Timeout:   cfg.Ticker.Timeout,
	}, nil)

	charts := chart.NewFetcher(&chart.Config{
		URLTemplate: cfg.Chart.URLTemplate,
		CropTop:     cfg.Chart.CropTop,
		Timeout:     cfg.Chart.Timeout,
	}, nil)

	engine := stockle.NewEngine(stockle.NewMemoryStore(), tickers, &stockle.Config{
		MaxGuesses:     cfg.Stockle.MaxGuesses,
		ResolveTimeout: cfg.Stockle.ResolveTimeout,
	})

	log.Info().
		Int("max_guesses", engine.MaxGuesses()).
		Int("candidates", len(cfg.Stockle.Candidates)).
		Strs("exchanges", cfg.Ticker.Exchanges).
		Msg("Stockle engine ready")

	telegramBot, err := bot.New(&bot.Dependencies{
		Config: cfg,
		Engine: engine,
		Charts: charts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Int("abandoned_games", engine.ActiveGames()).Msg("Bot stopped gracefully")
}

// configureLogging applies the log level and output format from config.
func configureLogging(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
