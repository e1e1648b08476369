package ports

import (
	"context"

	"github.com/layer-3/xamanauth/core"
)

// SessionStore persists the wallet session under a fixed key
type SessionStore interface {
	// Restore returns the persisted session, or nil when none is stored.
	// Malformed records are deleted and reported as absent.
	Restore(ctx context.Context) (*core.Session, error)
	Save(ctx context.Context, session core.Session) error
	Clear(ctx context.Context) error
}
