package stockle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockle-bot/internal/model"
)

var apple = model.TickerInfo{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", MarketCap: 3000, Exchange: "NASDAQ"}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	store := NewMemoryStore()

	created, err := store.Create(1, apple)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.UserID)
	assert.Equal(t, apple, created.Answer)
	assert.Equal(t, InProgress, created.Status)
	assert.Empty(t, created.Guesses)

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CreateTwiceFails(t *testing.T) {
	store := NewMemoryStore()

	first, err := store.Create(1, apple)
	require.NoError(t, err)

	_, err = store.Create(1, model.TickerInfo{Symbol: "MSFT"})
	assert.ErrorIs(t, err, ErrAlreadyActive)

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "AAPL", got.Answer.Symbol)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(404)
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Create(1, apple)
	require.NoError(t, err)

	_, err = store.Update(1, func(s *Session) error {
		s.Guesses = append(s.Guesses, GuessRecord{Ordinal: 1, Symbol: "MSFT", Letters: []LetterTag{Absent, Absent, Absent, Absent}})
		return nil
	})
	require.NoError(t, err)

	snapshot, err := store.Get(1)
	require.NoError(t, err)
	snapshot.Guesses[0].Letters[0] = Correct
	snapshot.Guesses = append(snapshot.Guesses, GuessRecord{Ordinal: 2})
	snapshot.Status = Won

	again, err := store.Get(1)
	require.NoError(t, err)
	assert.Len(t, again.Guesses, 1)
	assert.Equal(t, Absent, again.Guesses[0].Letters[0])
	assert.Equal(t, InProgress, again.Status)
}

func TestMemoryStore_UpdateRollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Create(1, apple)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(1, func(s *Session) error {
		s.Guesses = append(s.Guesses, GuessRecord{Ordinal: 1})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Empty(t, got.Guesses)
}

func TestMemoryStore_UpdateRemovesTerminalSession(t *testing.T) {
	for _, status := range []Status{Won, Lost} {
		t.Run(status.String(), func(t *testing.T) {
			store := NewMemoryStore()
			_, err := store.Create(1, apple)
			require.NoError(t, err)

			final, err := store.Update(1, func(s *Session) error {
				s.Status = status
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, status, final.Status)

			_, err = store.Get(1)
			assert.ErrorIs(t, err, ErrNoActiveGame)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestMemoryStore_UpdateMissing(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Update(1, func(s *Session) error { return nil })
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestMemoryStore_RemoveIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Create(1, apple)
	require.NoError(t, err)

	store.Remove(1)
	store.Remove(1)

	_, err = store.Get(1)
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Create(1, apple)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = store.Create(2, apple)
	require.NoError(t, err)

	removed := store.Sweep(now.Add(-time.Hour))
	assert.Equal(t, 1, removed)

	_, err = store.Get(1)
	assert.ErrorIs(t, err, ErrNoActiveGame)
	_, err = store.Get(2)
	assert.NoError(t, err)
}

func TestMemoryStore_UpdateRefreshesActivity(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.Create(1, apple)
	require.NoError(t, err)

	now = now.Add(3 * time.Hour)
	_, err = store.Update(1, func(s *Session) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, 0, store.Sweep(now.Add(-time.Hour)))
}
