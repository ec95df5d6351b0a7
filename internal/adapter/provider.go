package adapter

import (
	"context"
)

// LedgerProvider builds a LedgerService bound to a user's access
// token. A new service is constructed per request; nothing is shared
// across users.
type LedgerProvider interface {
	GetService(ctx context.Context, accessToken string) (LedgerService, error)
}
