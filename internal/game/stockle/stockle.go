// Package stockle implements the Stockle game: guess a hidden stock ticker
// from a chart, with letter feedback plus sector and market-cap hints.
//
// The package is independent of any chat platform. An adapter drives it
// through Engine.StartGame, Engine.SubmitGuess and Engine.Quit and renders
// the structured results.
package stockle

import (
	"context"
	"errors"
	"time"

	"stockle-bot/internal/model"
)

const (
	// DefaultMaxGuesses is the guess budget of a game.
	DefaultMaxGuesses = 6

	// DefaultResolveTimeout bounds a single ticker lookup.
	DefaultResolveTimeout = 5 * time.Second
)

// Errors returned by the game engine. All of them are expected conditions
// that the adapter reports to the user.
var (
	ErrAlreadyActive      = errors.New("a game is already in progress")
	ErrNoActiveGame       = errors.New("no active game")
	ErrLengthMismatch     = errors.New("guess length does not match answer length")
	ErrInvalidTicker      = errors.New("invalid ticker")
	ErrAnswerUnresolvable = errors.New("could not resolve the answer ticker")
	ErrEmptyPool          = errors.New("candidate pool is empty")
	ErrConcurrentGuess    = errors.New("game changed while the guess was evaluated")
)

// Gateway resolves a ticker symbol into listing attributes.
// Any returned error means the symbol is unresolvable.
type Gateway interface {
	Resolve(ctx context.Context, symbol string) (model.TickerInfo, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, symbol string) (model.TickerInfo, error)

// Resolve calls f.
func (f GatewayFunc) Resolve(ctx context.Context, symbol string) (model.TickerInfo, error) {
	return f(ctx, symbol)
}

// CapComparison compares the guessed listing's market cap with the answer's.
type CapComparison int

const (
	CapEqual CapComparison = iota
	CapGuessHigher
	CapGuessLower
)

// String returns the comparison name.
func (c CapComparison) String() string {
	switch c {
	case CapGuessHigher:
		return "higher"
	case CapGuessLower:
		return "lower"
	default:
		return "equal"
	}
}

// CompareCap compares a guessed market cap against the answer's.
func CompareCap(guess, answer int64) CapComparison {
	switch {
	case guess == answer:
		return CapEqual
	case guess > answer:
		return CapGuessHigher
	default:
		return CapGuessLower
	}
}

// Status is the lifecycle state of a game.
type Status int

const (
	InProgress Status = iota
	Won
	Lost
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "in_progress"
	}
}

// Terminal reports whether the game is over.
func (s Status) Terminal() bool {
	return s != InProgress
}
