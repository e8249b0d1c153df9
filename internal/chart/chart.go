// Package chart fetches price-chart images for a ticker and hides the
// ticker label so the image can be shown to players.
package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Chart providers serve GIF or JPEG as well as PNG.
	_ "image/gif"
	_ "image/jpeg"

	"github.com/rs/zerolog/log"
)

// Timeframe selects the period covered by a chart.
type Timeframe string

const (
	Daily   Timeframe = "d"
	Weekly  Timeframe = "w"
	Monthly Timeframe = "m"
)

// Timeframes lists the supported timeframes in display order.
var Timeframes = []Timeframe{Daily, Weekly, Monthly}

// ErrUnknownTimeframe is returned for timeframes outside Timeframes.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Label returns the button label for the timeframe.
func (tf Timeframe) Label() string {
	switch tf {
	case Daily:
		return "Daily"
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	default:
		return string(tf)
	}
}

// ParseTimeframe accepts a code ("d") or a label ("daily"), case-insensitively.
func ParseTimeframe(s string) (Timeframe, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tf := range Timeframes {
		if s == string(tf) || s == strings.ToLower(tf.Label()) {
			return tf, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
}

// DefaultURLTemplate is a finviz chart URL. {symbol} and {period} are substituted.
const DefaultURLTemplate = "https://finviz.com/chart.ashx?t={symbol}&ty=c&ta=0&p={period}"

// DefaultCropTop is the height in pixels of the header band of the default
// template's charts. The band carries the ticker label.
const DefaultCropTop = 40

// Config holds configuration for the fetcher.
type Config struct {
	URLTemplate string
	CropTop     int // Pixels removed from the top of the image
	Timeout     time.Duration
	UserAgent   string
}

// Fetcher downloads and crops chart images.
type Fetcher struct {
	urlTemplate string
	cropTop     int
	userAgent   string
	http        *http.Client
}

// NewFetcher creates a Fetcher. A nil httpClient gets one with cfg.Timeout.
func NewFetcher(cfg *Config, httpClient *http.Client) *Fetcher {
	f := &Fetcher{
		urlTemplate: DefaultURLTemplate,
		userAgent:   "Mozilla/5.0 (compatible; stockle-bot)",
	}
	timeout := 10 * time.Second

	if cfg != nil {
		if cfg.URLTemplate != "" {
			f.urlTemplate = cfg.URLTemplate
		}
		if cfg.CropTop > 0 {
			f.cropTop = cfg.CropTop
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			f.userAgent = cfg.UserAgent
		}
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	f.http = httpClient
	return f
}

// URL returns the chart URL for symbol and timeframe.
func (f *Fetcher) URL(symbol string, tf Timeframe) string {
	r := strings.NewReplacer(
		"{symbol}", url.QueryEscape(strings.ToUpper(symbol)),
		"{period}", string(tf),
	)
	return r.Replace(f.urlTemplate)
}

// Fetch downloads the chart and returns it as PNG with the top band removed.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, tf Timeframe) ([]byte, error) {
	if _, err := ParseTimeframe(string(tf)); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(symbol, tf), nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("chart request returned %s", resp.Status)
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode chart image: %w", err)
	}

	cropped := CropTop(img, f.cropTop)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("encode chart image: %w", err)
	}

	log.Debug().
		Str("symbol", symbol).
		Str("timeframe", tf.Label()).
		Str("format", format).
		Int("bytes", buf.Len()).
		Msg("Chart fetched")

	return buf.Bytes(), nil
}

// CropTop returns a copy of img without its top px rows.
// Cropping more rows than the image has leaves a single row.
func CropTop(img image.Image, px int) image.Image {
	b := img.Bounds()
	if px <= 0 {
		return img
	}
	if px >= b.Dy() {
		px = b.Dy() - 1
	}

	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()-px))
	draw.Draw(out, out.Bounds(), img, image.Pt(b.Min.X, b.Min.Y+px), draw.Src)
	return out
}
