// Package lock provides per-user mutual exclusion for game operations.
// Operations for the same user are serialized; different users never contend.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// userMutex is a one-slot semaphore shared by every holder and waiter of a user.
// refs counts both, so the entry can be dropped once nobody references it.
type userMutex struct {
	slot chan struct{}
	refs int
}

// UserLock hands out per-user locks keyed by Telegram user ID.
type UserLock struct {
	mu    sync.Mutex
	locks map[int64]*userMutex
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{
		locks: make(map[int64]*userMutex),
	}
}

// ref returns the user's mutex, creating it on first use, and takes a reference.
func (ul *UserLock) ref(userID int64) *userMutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	m, ok := ul.locks[userID]
	if !ok {
		m = &userMutex{slot: make(chan struct{}, 1)}
		ul.locks[userID] = m
	}
	m.refs++
	return m
}

// unref drops a reference and forgets the mutex when it is no longer used.
func (ul *UserLock) unref(userID int64, m *userMutex) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	m.refs--
	if m.refs == 0 {
		delete(ul.locks, userID)
	}
}

// LockContext acquires the user's lock or gives up when ctx is done.
// The returned error wraps both ErrLockTimeout and the context error.
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	m := ul.ref(userID)
	select {
	case m.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.unref(userID, m)
		return fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
	}
}

// Unlock releases the user's lock. Unlocking a free lock is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-m.slot:
		ul.unref(userID, m)
	default:
	}
}

// size returns the number of users with a held or awaited lock.
func (ul *UserLock) size() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.locks)
}
