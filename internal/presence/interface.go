package presence

import (
	"context"

	"github.com/b4knamy/online-chat-backend/internal/domain"
)

// Store tracks which users are available to log in and the global online
// counter. Implementations must apply every state transition atomically so
// concurrent logins and logouts never leave the counter inconsistent with
// the set.
type Store interface {
	// Seed resets the store: every username becomes available and the
	// online counter returns to zero.
	Seed(ctx context.Context, usernames []string) error

	// Reserve atomically removes username from the available set and
	// increments the online counter. It reports false, without mutating
	// anything, when the username is not available.
	Reserve(ctx context.Context, username string) (bool, error)

	// Release atomically returns username to the available set and
	// decrements the online counter, flooring it at zero. Releasing an
	// already-available username is a no-op.
	Release(ctx context.Context, username string) error

	// Snapshot returns the current presence view, always read fresh from
	// the backing store.
	Snapshot(ctx context.Context) (domain.PresenceSnapshot, error)

	// Close closes the store connection.
	Close() error
}
