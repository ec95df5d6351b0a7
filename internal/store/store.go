// Package store persists the per-user encrypted spreadsheet reference.
package store

import (
	"context"
	"errors"

	"github.com/jun/dreamlog/backend/internal/model"
)

// ErrNotFound is returned when no account row exists for an identity.
var ErrNotFound = errors.New("account not found")

// ReferenceStore is keyed by the user's verified email. Upsert with a
// nil reference clears the stored blob without deleting the row.
type ReferenceStore interface {
	// Get retrieves the account row for the identity.
	Get(ctx context.Context, email string) (*model.UserAccount, error)

	// Upsert inserts or updates the row, stamping updated_at (and
	// created_at on first insert). encrypted == nil clears the
	// reference.
	Upsert(ctx context.Context, email string, encrypted *string) error
}
