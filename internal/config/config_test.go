package config

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"stockle-bot/internal/chart"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Bot.PollTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 6, cfg.Stockle.MaxGuesses)
	assert.Equal(t, 5*time.Second, cfg.Stockle.ResolveTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Stockle.IdleTTL)
	assert.Equal(t, 10*time.Minute, cfg.Stockle.SweepInterval)
	assert.Equal(t, DefaultCandidates, cfg.Stockle.Candidates)
	assert.Equal(t, []string{"NASDAQ"}, cfg.Ticker.Exchanges)
	assert.Equal(t, "d", cfg.Chart.DefaultTimeframe)
	assert.Equal(t, chart.DefaultCropTop, cfg.Chart.CropTop)
	assert.Equal(t, chart.DefaultURLTemplate, cfg.Chart.URLTemplate)
	assert.Empty(t, cfg.Whitelist.Chats)
}

func TestLoad_DefaultsCropChartHeader(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	var served bytes.Buffer
	require.NoError(t, png.Encode(&served, image.NewRGBA(image.Rect(0, 0, 10, 100))))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(served.Bytes())
	}))
	defer srv.Close()

	f := chart.NewFetcher(&chart.Config{
		URLTemplate: srv.URL + "/chart?t={symbol}&p={period}",
		CropTop:     cfg.Chart.CropTop,
	}, srv.Client())

	data, err := f.Fetch(context.Background(), "AAPL", chart.Daily)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100-chart.DefaultCropTop, img.Bounds().Dy())
}

func TestLoad_YAMLFile(t *testing.T) {
	chdir(t, t.TempDir())
	dir := t.TempDir()
	yaml := `
bot:
  token: "123:abc"
stockle:
  max_guesses: 8
  resolve_timeout: 2s
  candidates: [AAPL, MSFT]
ticker:
  api_key: "k"
  exchanges: [NASDAQ, NYSE]
chart:
  crop_top: 40
whitelist:
  chats: [-100123, 42]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, 8, cfg.Stockle.MaxGuesses)
	assert.Equal(t, 2*time.Second, cfg.Stockle.ResolveTimeout)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Stockle.Candidates)
	assert.Equal(t, "k", cfg.Ticker.APIKey)
	assert.Equal(t, []string{"NASDAQ", "NYSE"}, cfg.Ticker.Exchanges)
	assert.Equal(t, 40, cfg.Chart.CropTop)
	assert.Equal(t, []int64{-100123, 42}, cfg.Whitelist.Chats)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("TICKER_API_KEY", "env-key")
	t.Setenv("STOCKLE_MAX_GUESSES", "4")
	t.Setenv("STOCKLE_IDLE_TTL", "1h")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, "env-key", cfg.Ticker.APIKey)
	assert.Equal(t, 4, cfg.Stockle.MaxGuesses)
	assert.Equal(t, time.Hour, cfg.Stockle.IdleTTL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TICKER_API_KEY=from-dotenv\n"), 0o600))

	// Ensure the key is unset for the test and restored afterwards.
	t.Setenv("TICKER_API_KEY", "")
	require.NoError(t, os.Unsetenv("TICKER_API_KEY"))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Ticker.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STOCKLE_MAX_GUESSES", "0")

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Stockle: StockleConfig{MaxGuesses: 6, Candidates: []string{"AAPL"}}}
	assert.NoError(t, valid.Validate())

	noCandidates := valid
	noCandidates.Stockle.Candidates = nil
	assert.Error(t, noCandidates.Validate())

	negativeCrop := valid
	negativeCrop.Chart.CropTop = -1
	assert.Error(t, negativeCrop.Validate())
}

// TestWhitelistEnforcementProperty: *for any* non-empty whitelist, a chat is
// allowed if and only if its ID is listed; an empty whitelist allows every chat.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1000000, 1000000), 0, 10).Draw(t, "chats")
		chatID := rapid.Int64Range(-1000000, 1000000).Draw(t, "chatID")

		cfg := &Config{Whitelist: WhitelistConfig{Chats: chats}}

		expected := len(chats) == 0
		for _, id := range chats {
			if id == chatID {
				expected = true
			}
		}

		if got := cfg.IsChatAllowed(chatID); got != expected {
			t.Fatalf("IsChatAllowed(%d) with whitelist %v = %v, want %v", chatID, chats, got, expected)
		}
	})
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
