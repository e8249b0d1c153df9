// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"stockle-bot/internal/chart"
	"stockle-bot/internal/config"
	"stockle-bot/internal/game/stockle"
	"stockle-bot/internal/handler"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	engine *stockle.Engine
	access *privateAccess

	stockleHandler *handler.StockleHandler

	stopOnce sync.Once
	done     chan struct{}
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config *config.Config
	Engine *stockle.Engine
	Charts handler.ChartSource
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	tf, err := chart.ParseTimeframe(deps.Config.Chart.DefaultTimeframe)
	if err != nil {
		return nil, fmt.Errorf("chart.default_timeframe: %w", err)
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: deps.Config.Bot.PollTimeout},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:    teleBot,
		cfg:    deps.Config,
		engine: deps.Engine,
		access: newPrivateAccess(),
		done:   make(chan struct{}),
	}

	b.stockleHandler = handler.NewStockleHandler(deps.Engine, deps.Charts, deps.Config.Stockle.Candidates, tf)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg, b.access))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.stockleHandler.HandleHelp)
	b.bot.Handle("/help", b.stockleHandler.HandleHelp)

	b.bot.Handle("/stockle", b.stockleHandler.HandleStart)
	b.bot.Handle("/guess", b.stockleHandler.HandleGuess)
	b.bot.Handle("/quit", b.stockleHandler.HandleQuit)
	b.bot.Handle("/history", b.stockleHandler.HandleHistory)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes callbacks to appropriate handlers.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, handler.ChartCallbackPrefix) {
		return b.stockleHandler.HandleChartCallback(c)
	}
	return c.Respond()
}

// Start starts the idle-game janitor and then blocks polling for updates.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")

	go b.runJanitor(b.cfg.Stockle.SweepInterval, b.cfg.Stockle.IdleTTL)
	log.Info().
		Dur("interval", b.cfg.Stockle.SweepInterval).
		Dur("idle_ttl", b.cfg.Stockle.IdleTTL).
		Msg("Idle game janitor started")

	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.stopOnce.Do(func() { close(b.done) })
	b.bot.Stop()
}

// runJanitor drops abandoned games until Stop is called.
// A non-positive interval or ttl disables it.
func (b *Bot) runJanitor(interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			if n := b.engine.ExpireIdle(ttl); n > 0 {
				log.Info().Int("expired", n).Int("active", b.engine.ActiveGames()).Msg("Expired idle games")
			}
		}
	}
}
