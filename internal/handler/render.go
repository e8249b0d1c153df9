package handler

import (
	"errors"
	"fmt"
	"strings"

	"stockle-bot/internal/game/stockle"
	"stockle-bot/internal/model"
	"stockle-bot/internal/pkg/lock"
)

const divider = "━━━━━━━━━━━━━━━"

// FormatLetters renders letter feedback as emoji squares.
func FormatLetters(tags []stockle.LetterTag) string {
	var sb strings.Builder
	for _, t := range tags {
		switch t {
		case stockle.Correct:
			sb.WriteString("🟩")
		case stockle.Present:
			sb.WriteString("🟨")
		default:
			sb.WriteString("⬜")
		}
	}
	return sb.String()
}

// FormatCap renders the market-cap hint from the player's point of view.
func FormatCap(c stockle.CapComparison) string {
	switch c {
	case stockle.CapGuessHigher:
		return "📉 answer is smaller"
	case stockle.CapGuessLower:
		return "📈 answer is bigger"
	default:
		return "🟰 same size"
	}
}

// FormatSector renders the sector hint.
func FormatSector(match bool) string {
	if match {
		return "✅ same sector"
	}
	return "❌ other sector"
}

// FormatGuess renders one history line.
func FormatGuess(g stockle.GuessRecord) string {
	return fmt.Sprintf("%d. %s %s | %s | %s",
		g.Ordinal, FormatLetters(g.Letters), g.Symbol, FormatSector(g.SectorMatch), FormatCap(g.Cap))
}

// FormatHistory renders all guesses, one per line.
func FormatHistory(history []stockle.GuessRecord) string {
	if len(history) == 0 {
		return "No guesses yet."
	}
	lines := make([]string, len(history))
	for i, g := range history {
		lines[i] = FormatGuess(g)
	}
	return strings.Join(lines, "\n")
}

// FormatMarketCap renders a market cap with a K/M/B/T suffix.
func FormatMarketCap(v int64) string {
	units := []struct {
		size   float64
		suffix string
	}{
		{1e12, "T"},
		{1e9, "B"},
		{1e6, "M"},
		{1e3, "K"},
	}
	f := float64(v)
	for _, u := range units {
		if f >= u.size {
			return fmt.Sprintf("%.2f%s", f/u.size, u.suffix)
		}
	}
	return fmt.Sprintf("%d", v)
}

// FormatAnswer renders the revealed answer.
func FormatAnswer(t model.TickerInfo) string {
	return fmt.Sprintf("%s (%s) · %s · cap %s", t.Symbol, t.Name, t.Sector, FormatMarketCap(t.MarketCap))
}

// FormatOutcome renders the reply to a counted guess.
func FormatOutcome(o stockle.GuessOutcome, maxGuesses int) string {
	var sb strings.Builder
	sb.WriteString("📊 Stockle\n")
	sb.WriteString(divider + "\n")
	sb.WriteString(FormatHistory(o.History) + "\n")
	sb.WriteString(divider + "\n")

	switch {
	case o.Won():
		fmt.Fprintf(&sb, "🎉 Correct in %d/%d! The stock was %s.", len(o.History), maxGuesses, FormatAnswer(o.Answer))
	case o.Finished():
		fmt.Fprintf(&sb, "💀 Out of guesses. The stock was %s.", FormatAnswer(o.Answer))
	default:
		fmt.Fprintf(&sb, "❌ Not it. %d guess(es) left.", o.Remaining)
	}
	return sb.String()
}

// ErrorMessage maps engine errors to user-facing replies.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, stockle.ErrAlreadyActive):
		return "⚠️ You already have a Stockle game running. Use /guess <TICKER> or /quit."
	case errors.Is(err, stockle.ErrNoActiveGame):
		return "⚠️ You haven't started a Stockle game. Use /stockle first!"
	case errors.Is(err, stockle.ErrLengthMismatch):
		return "📏 Wrong length. Your guess must have as many letters as the answer."
	case errors.Is(err, stockle.ErrInvalidTicker):
		return "❓ That's not a valid listed stock. Try again; it did not count as a guess."
	case errors.Is(err, stockle.ErrAnswerUnresolvable):
		return "⚠️ Couldn't load a stock for this game. Please try /stockle again."
	case errors.Is(err, stockle.ErrEmptyPool):
		return "⚠️ No stocks are configured for Stockle."
	case errors.Is(err, stockle.ErrConcurrentGuess), errors.Is(err, lock.ErrLockTimeout):
		return "⏳ Still working on your previous command, try again in a moment."
	default:
		return "❌ Something went wrong, please try again later."
	}
}
