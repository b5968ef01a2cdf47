package session

import (
	"context"
	"errors"

	"visionchat/pkg/domain"
)

// ErrCorruptState indicates a persisted record exists but cannot be parsed
// into the session shape. The record is left in place so an operator can
// inspect it; a reset overwrites it with a fresh empty session.
var ErrCorruptState = errors.New("corrupt session state")

// Store persists the single chat session as one whole record.
// Save always replaces the full record; there are no partial updates.
// Callers are expected to serialize their load-mutate-save cycles.
type Store interface {
	// Load returns the persisted session, or a fresh empty session when no
	// record exists yet. An unparsable record yields ErrCorruptState.
	Load(ctx context.Context) (domain.Session, error)
	// Save atomically replaces the persisted record.
	Save(ctx context.Context, s domain.Session) error
	// Reset replaces the record with an empty session.
	Reset(ctx context.Context) error
}
