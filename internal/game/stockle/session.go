package stockle

import (
	"time"

	"stockle-bot/internal/model"
)

// GuessRecord is one evaluated guess. Records are append-only.
type GuessRecord struct {
	Ordinal     int // 1-based position within the game
	Symbol      string
	Name        string
	Letters     []LetterTag
	SectorMatch bool
	Cap         CapComparison
}

// Session is one user's game.
type Session struct {
	ID           string
	UserID       int64
	Answer       model.TickerInfo
	Guesses      []GuessRecord
	Status       Status
	StartedAt    time.Time
	LastActivity time.Time
}

// GuessCount returns the number of counted guesses.
func (s *Session) GuessCount() int {
	return len(s.Guesses)
}

// clone returns a deep copy so callers never share slices with the store.
func (s *Session) clone() Session {
	c := *s
	c.Guesses = cloneHistory(s.Guesses)
	return c
}

func cloneHistory(history []GuessRecord) []GuessRecord {
	if history == nil {
		return nil
	}
	out := make([]GuessRecord, len(history))
	for i, g := range history {
		g.Letters = append([]LetterTag(nil), g.Letters...)
		out[i] = g
	}
	return out
}
