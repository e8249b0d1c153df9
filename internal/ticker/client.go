// Package ticker resolves stock symbols against a company-profile HTTP API.
//
// The API is expected to answer GET {base}/profile/{SYMBOL}?apikey=KEY with a
// JSON array of profiles, empty when the symbol is unknown.
package ticker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"stockle-bot/internal/model"
)

// DefaultBaseURL is the Financial Modeling Prep v3 API.
const DefaultBaseURL = "https://financialmodelingprep.com/api/v3"

// Errors returned by the client.
var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrBadSymbol     = errors.New("symbol contains unsupported characters")
)

// profile is the subset of the provider's company profile we use.
type profile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"companyName"`
	Sector            string  `json:"sector"`
	MktCap            float64 `json:"mktCap"`
	ExchangeShortName string  `json:"exchangeShortName"`
	IsActivelyTrading *bool   `json:"isActivelyTrading"`
}

// Config holds configuration for the client.
type Config struct {
	BaseURL   string
	APIKey    string
	Exchanges []string // Allowed exchange short names; empty allows all
	Timeout   time.Duration
}

// Client looks up listings over HTTP.
type Client struct {
	baseURL   string
	apiKey    string
	exchanges map[string]struct{}
	http      *http.Client
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg *Config, httpClient *http.Client) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	timeout := 10 * time.Second

	if cfg != nil {
		if cfg.BaseURL != "" {
			c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		c.apiKey = cfg.APIKey
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if len(cfg.Exchanges) > 0 {
			c.exchanges = make(map[string]struct{}, len(cfg.Exchanges))
			for _, ex := range cfg.Exchanges {
				c.exchanges[strings.ToUpper(strings.TrimSpace(ex))] = struct{}{}
			}
		}
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	c.http = httpClient
	return c
}

// Resolve fetches the listing for symbol.
// It returns ErrUnknownSymbol when the provider has no profile for it or the
// listing trades on an exchange outside the allow-list.
func (c *Client) Resolve(ctx context.Context, symbol string) (model.TickerInfo, error) {
	symbol = model.NormalizeSymbol(symbol)
	if !validSymbol(symbol) {
		return model.TickerInfo{}, fmt.Errorf("%w: %q", ErrBadSymbol, symbol)
	}

	endpoint := fmt.Sprintf("%s/profile/%s", c.baseURL, url.PathEscape(symbol))
	if c.apiKey != "" {
		endpoint += "?apikey=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.TickerInfo{}, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return model.TickerInfo{}, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("symbol", symbol).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Ticker profile fetched")

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.TickerInfo{}, fmt.Errorf("profile request returned %s", resp.Status)
	}

	var profiles []profile
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		return model.TickerInfo{}, fmt.Errorf("decode profile response: %w", err)
	}

	for _, p := range profiles {
		if !strings.EqualFold(p.Symbol, symbol) {
			continue
		}
		if p.IsActivelyTrading != nil && !*p.IsActivelyTrading {
			return model.TickerInfo{}, fmt.Errorf("%w: %s is not actively trading", ErrUnknownSymbol, symbol)
		}
		if !c.exchangeAllowed(p.ExchangeShortName) {
			return model.TickerInfo{}, fmt.Errorf("%w: %s is listed on %s", ErrUnknownSymbol, symbol, p.ExchangeShortName)
		}
		return p.toTickerInfo(symbol), nil
	}

	return model.TickerInfo{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}

func (c *Client) exchangeAllowed(exchange string) bool {
	if len(c.exchanges) == 0 {
		return true
	}
	_, ok := c.exchanges[strings.ToUpper(exchange)]
	return ok
}

func (p profile) toTickerInfo(symbol string) model.TickerInfo {
	sector := strings.TrimSpace(p.Sector)
	if sector == "" {
		sector = model.UnknownSector
	}
	marketCap := int64(0)
	if p.MktCap > 0 && !math.IsInf(p.MktCap, 0) {
		marketCap = int64(math.Round(p.MktCap))
	}
	name := strings.TrimSpace(p.CompanyName)
	if name == "" {
		name = symbol
	}
	return model.TickerInfo{
		Symbol:    symbol,
		Name:      name,
		Sector:    sector,
		MarketCap: marketCap,
		Exchange:  p.ExchangeShortName,
	}
}

// validSymbol accepts exchange tickers: letters, digits, '.' and '-'.
func validSymbol(symbol string) bool {
	if symbol == "" || len(symbol) > 10 {
		return false
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
