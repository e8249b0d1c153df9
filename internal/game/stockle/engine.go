package stockle

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"stockle-bot/internal/model"
	"stockle-bot/internal/pkg/lock"
)

// GuessOutcome is the result of a counted guess.
type GuessOutcome struct {
	Status    Status           // InProgress, Won or Lost after this guess
	Guess     GuessRecord      // The guess just evaluated
	History   []GuessRecord    // All guesses so far, including Guess
	Remaining int              // Guesses left; 0 once finished
	Answer    model.TickerInfo // Set only when the game finished
}

// Finished reports whether the guess ended the game.
func (o GuessOutcome) Finished() bool {
	return o.Status.Terminal()
}

// Won reports whether the guess won the game.
func (o GuessOutcome) Won() bool {
	return o.Status == Won
}

// Config holds configuration for the engine.
type Config struct {
	MaxGuesses     int
	ResolveTimeout time.Duration
}

// Engine runs Stockle games for many users at once.
type Engine struct {
	store          Store
	gateway        Gateway
	locks          *lock.UserLock
	maxGuesses     int
	resolveTimeout time.Duration
	intn           func(n int) int
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRandom sets the function used to pick answers; it must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(e *Engine) {
		e.intn = intn
	}
}

// NewEngine creates an Engine backed by store and gateway.
func NewEngine(store Store, gateway Gateway, cfg *Config, opts ...Option) *Engine {
	maxGuesses := DefaultMaxGuesses
	resolveTimeout := DefaultResolveTimeout

	if cfg != nil {
		if cfg.MaxGuesses > 0 {
			maxGuesses = cfg.MaxGuesses
		}
		if cfg.ResolveTimeout > 0 {
			resolveTimeout = cfg.ResolveTimeout
		}
	}

	e := &Engine{
		store:          store,
		gateway:        gateway,
		locks:          lock.NewUserLock(),
		maxGuesses:     maxGuesses,
		resolveTimeout: resolveTimeout,
		intn:           rand.Intn,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxGuesses returns the guess budget of a game.
func (e *Engine) MaxGuesses() int {
	return e.maxGuesses
}

// StartGame picks a random answer from pool and opens a game for userID.
// The returned listing is the answer, for the adapter to chart.
func (e *Engine) StartGame(ctx context.Context, userID int64, pool []string) (model.TickerInfo, error) {
	if err := e.locks.LockContext(ctx, userID); err != nil {
		return model.TickerInfo{}, err
	}
	defer e.locks.Unlock(userID)

	if _, err := e.store.Get(userID); err == nil {
		return model.TickerInfo{}, ErrAlreadyActive
	}

	if len(pool) == 0 {
		return model.TickerInfo{}, ErrEmptyPool
	}
	pick := model.NormalizeSymbol(pool[e.intn(len(pool))])

	answer, err := e.resolve(ctx, pick)
	if err != nil {
		log.Warn().
			Err(err).
			Int64("user_id", userID).
			Str("symbol", pick).
			Msg("Failed to resolve answer ticker")
		return model.TickerInfo{}, fmt.Errorf("%w: %s: %v", ErrAnswerUnresolvable, pick, err)
	}

	session, err := e.store.Create(userID, answer)
	if err != nil {
		return model.TickerInfo{}, err
	}

	log.Info().
		Str("game_id", session.ID).
		Int64("user_id", userID).
		Str("answer", answer.Symbol).
		Msg("Stockle game started")

	return answer, nil
}

// SubmitGuess evaluates a guess for the user's game.
// Guesses with the wrong length or an unknown ticker are rejected without
// consuming the guess budget.
func (e *Engine) SubmitGuess(ctx context.Context, userID int64, raw string) (GuessOutcome, error) {
	if err := e.locks.LockContext(ctx, userID); err != nil {
		return GuessOutcome{}, err
	}
	defer e.locks.Unlock(userID)

	symbol := model.NormalizeSymbol(raw)

	session, err := e.store.Get(userID)
	if err != nil {
		return GuessOutcome{}, err
	}
	answer := session.Answer

	if len(symbol) != len(answer.Symbol) {
		return GuessOutcome{}, fmt.Errorf("%w: %q has %d letters, expected %d",
			ErrLengthMismatch, symbol, len(symbol), len(answer.Symbol))
	}

	guessed, err := e.resolve(ctx, symbol)
	if err != nil {
		log.Debug().
			Err(err).
			Int64("user_id", userID).
			Str("symbol", symbol).
			Msg("Rejected unresolvable guess")
		return GuessOutcome{}, fmt.Errorf("%w: %s", ErrInvalidTicker, symbol)
	}

	letters, err := Feedback(symbol, answer.Symbol)
	if err != nil {
		return GuessOutcome{}, err
	}

	expected := session.GuessCount()
	record := GuessRecord{
		Ordinal:     expected + 1,
		Symbol:      symbol,
		Name:        guessed.Name,
		Letters:     letters,
		SectorMatch: guessed.SameSector(answer),
		Cap:         CompareCap(guessed.MarketCap, answer.MarketCap),
	}

	updated, err := e.store.Update(userID, func(s *Session) error {
		if s.ID != session.ID || s.GuessCount() != expected {
			return ErrConcurrentGuess
		}
		s.Guesses = append(s.Guesses, record)
		switch {
		case symbol == s.Answer.Symbol:
			s.Status = Won
		case s.GuessCount() >= e.maxGuesses:
			s.Status = Lost
		}
		return nil
	})
	if err != nil {
		return GuessOutcome{}, err
	}

	outcome := GuessOutcome{
		Status:  updated.Status,
		Guess:   record,
		History: updated.Guesses,
	}
	if outcome.Finished() {
		outcome.Answer = answer
		log.Info().
			Str("game_id", updated.ID).
			Int64("user_id", userID).
			Str("answer", answer.Symbol).
			Str("status", updated.Status.String()).
			Int("guesses", updated.GuessCount()).
			Msg("Stockle game finished")
	} else {
		outcome.Remaining = e.maxGuesses - updated.GuessCount()
	}

	return outcome, nil
}

// Quit abandons the user's game and returns its answer.
func (e *Engine) Quit(ctx context.Context, userID int64) (model.TickerInfo, error) {
	if err := e.locks.LockContext(ctx, userID); err != nil {
		return model.TickerInfo{}, err
	}
	defer e.locks.Unlock(userID)

	session, err := e.store.Get(userID)
	if err != nil {
		return model.TickerInfo{}, err
	}
	e.store.Remove(userID)

	log.Info().
		Str("game_id", session.ID).
		Int64("user_id", userID).
		Int("guesses", session.GuessCount()).
		Msg("Stockle game abandoned")

	return session.Answer, nil
}

// Session returns a snapshot of the user's game.
func (e *Engine) Session(userID int64) (Session, error) {
	return e.store.Get(userID)
}

// ActiveGames returns the number of games in progress.
func (e *Engine) ActiveGames() int {
	return e.store.Len()
}

// ExpireIdle removes games with no activity for longer than ttl.
func (e *Engine) ExpireIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return e.store.Sweep(time.Now().Add(-ttl))
}

// resolve looks up symbol with the engine's timeout applied.
func (e *Engine) resolve(ctx context.Context, symbol string) (model.TickerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.resolveTimeout)
	defer cancel()

	info, err := e.gateway.Resolve(ctx, symbol)
	if err != nil {
		return model.TickerInfo{}, err
	}
	info.Symbol = symbol
	if info.Sector == "" {
		info.Sector = model.UnknownSector
	}
	return info, nil
}
