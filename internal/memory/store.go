// Package memory keeps a bounded, per-session conversation history.
package memory

import (
	"context"
	"errors"

	"github.com/soyeahso/brainquest/internal/domain"
)

// DefaultWindow is the number of turns retained per session.
const DefaultWindow = 20

// ErrInvalidRole rejects a turn whose role is not one of the domain roles.
var ErrInvalidRole = errors.New("invalid turn role")

// Store holds ordered turns per session. Implementations must serialize
// operations on the same session ID and evict oldest turns first once the
// window is exceeded.
type Store interface {
	// Get returns a copy of the session's turns, oldest first. Unknown
	// sessions yield an empty slice.
	Get(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Append stores turn and evicts past the window in one step. The
	// returned turn carries its assigned ID and timestamp.
	Append(ctx context.Context, sessionID string, turn domain.Turn) (domain.Turn, error)

	// Remove deletes a single turn. It reports false if the turn was not
	// present (already evicted or never stored).
	Remove(ctx context.Context, sessionID, turnID string) (bool, error)

	// Sessions lists the IDs of all sessions seen so far.
	Sessions(ctx context.Context) ([]string, error)
}
