package googlesheets

import (
	"context"
	"fmt"

	"github.com/jun/dreamlog/backend/internal/adapter"
	"golang.org/x/oauth2"
)

// Provider implements adapter.LedgerProvider for Google Sheets.
type Provider struct{}

// NewProvider creates a new Google Sheets provider.
func NewProvider() *Provider {
	return &Provider{}
}

// GetService returns a SheetsAdapter authenticated with the given
// access token. The token is used as-is; refreshing happens before the
// pipeline reaches this point.
func (p *Provider) GetService(ctx context.Context, accessToken string) (adapter.LedgerService, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, source)

	svc, err := NewSheetsAdapter(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets adapter: %w", err)
	}
	return svc, nil
}
