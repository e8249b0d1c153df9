// Package handler provides Telegram bot command handlers.
package handler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"stockle-bot/internal/chart"
	"stockle-bot/internal/game/stockle"
	"stockle-bot/internal/model"
)

// commandTimeout bounds a single command, including ticker and chart lookups.
const commandTimeout = 20 * time.Second

// Game is the game engine surface used by the handler.
type Game interface {
	StartGame(ctx context.Context, userID int64, pool []string) (model.TickerInfo, error)
	SubmitGuess(ctx context.Context, userID int64, raw string) (stockle.GuessOutcome, error)
	Quit(ctx context.Context, userID int64) (model.TickerInfo, error)
	Session(userID int64) (stockle.Session, error)
	MaxGuesses() int
}

// ChartSource produces chart images.
type ChartSource interface {
	Fetch(ctx context.Context, symbol string, tf chart.Timeframe) ([]byte, error)
}

// StockleHandler handles Stockle commands and chart buttons.
type StockleHandler struct {
	game       Game
	charts     ChartSource
	candidates []string
	defaultTF  chart.Timeframe
}

// NewStockleHandler creates a new StockleHandler.
func NewStockleHandler(game Game, charts ChartSource, candidates []string, defaultTF chart.Timeframe) *StockleHandler {
	if defaultTF == "" {
		defaultTF = chart.Daily
	}
	return &StockleHandler{
		game:       game,
		charts:     charts,
		candidates: candidates,
		defaultTF:  defaultTF,
	}
}

// HandleStart handles the /stockle command.
func (h *StockleHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	answer, err := h.game.StartGame(ctx, sender.ID, h.candidates)
	if err != nil {
		log.Debug().Err(err).Int64("user_id", sender.ID).Msg("Stockle start rejected")
		return c.Reply(ErrorMessage(err))
	}

	caption := fmt.Sprintf("📊 Guess the stock! You have %d guesses.\nUse /guess <TICKER> (%d letters).",
		h.game.MaxGuesses(), len(answer.Symbol))

	photo, err := h.chartPhoto(ctx, answer.Symbol, h.defaultTF, caption)
	if err != nil {
		log.Error().Err(err).Str("symbol", answer.Symbol).Msg("Failed to fetch chart")
		return c.Reply(caption + "\n\n⚠️ The chart is unavailable right now, but the game is on.")
	}

	return c.Reply(photo, BuildTimeframePanel(h.defaultTF, sender.ID))
}

// HandleGuess handles the /guess command.
func (h *StockleHandler) HandleGuess(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	// A ticker never contains spaces.
	args := c.Args()
	if len(args) != 1 {
		return c.Reply("❌ Usage: /guess <TICKER>\nExample: /guess AAPL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	outcome, err := h.game.SubmitGuess(ctx, sender.ID, args[0])
	if err != nil {
		return c.Reply(ErrorMessage(err))
	}

	return c.Reply(FormatOutcome(outcome, h.game.MaxGuesses()))
}

// HandleQuit handles the /quit command.
func (h *StockleHandler) HandleQuit(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	answer, err := h.game.Quit(ctx, sender.ID)
	if err != nil {
		return c.Reply(ErrorMessage(err))
	}
	return c.Reply("🏳️ Game over. The stock was " + FormatAnswer(answer) + ".")
}

// HandleHistory handles the /history command.
func (h *StockleHandler) HandleHistory(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	session, err := h.game.Session(sender.ID)
	if err != nil {
		return c.Reply(ErrorMessage(err))
	}

	remaining := h.game.MaxGuesses() - session.GuessCount()
	return c.Reply(fmt.Sprintf("📊 Stockle\n%s\n%s\n%s\n%d guess(es) left.",
		divider, FormatHistory(session.Guesses), divider, remaining))
}

// HandleHelp handles the /help command.
func (h *StockleHandler) HandleHelp(c tele.Context) error {
	msg := "📊 Stockle: guess the stock from its chart!\n" +
		divider + "\n" +
		"/stockle - start a game\n" +
		"/guess <TICKER> - make a guess\n" +
		"/history - show your guesses\n" +
		"/quit - give up and reveal the answer\n" +
		divider + "\n" +
		"🟩 right letter, right spot\n" +
		"🟨 letter elsewhere in the ticker\n" +
		"⬜ letter not in the ticker\n" +
		"Each guess also tells you whether the sector matches and whether the answer is bigger or smaller by market cap."
	return c.Reply(msg)
}

// HandleChartCallback swaps the chart image when a timeframe button is pressed.
func (h *StockleHandler) HandleChartCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	tf, ownerID, ok := DecodeChartCallback(callback.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown button"})
	}
	if ownerID != sender.ID {
		return c.Respond(&tele.CallbackResponse{Text: "This is not your game. Start one with /stockle", ShowAlert: true})
	}

	session, err := h.game.Session(sender.ID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "This game is over."})
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	caption := fmt.Sprintf("📊 Guess the stock! %s chart · %d guess(es) left.",
		tf.Label(), h.game.MaxGuesses()-session.GuessCount())
	photo, err := h.chartPhoto(ctx, session.Answer.Symbol, tf, caption)
	if err != nil {
		log.Error().Err(err).Str("symbol", session.Answer.Symbol).Str("timeframe", tf.Label()).Msg("Failed to fetch chart")
		return c.Respond(&tele.CallbackResponse{Text: "Chart unavailable, try again later."})
	}

	if err := c.Edit(photo, BuildTimeframePanel(tf, sender.ID)); err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to update chart message")
	}
	return c.Respond()
}

func (h *StockleHandler) chartPhoto(ctx context.Context, symbol string, tf chart.Timeframe, caption string) (*tele.Photo, error) {
	img, err := h.charts.Fetch(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}
	return &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(img)),
		Caption: caption,
	}, nil
}
