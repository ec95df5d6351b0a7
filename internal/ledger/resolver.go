// Package ledger resolves a user's spreadsheet reference to a usable
// spreadsheet, creating one when necessary.
package ledger

import (
	"context"
	"fmt"

	"github.com/jun/dreamlog/backend/internal/adapter"
	"github.com/jun/dreamlog/backend/internal/model"
)

// Config fixes the title and sheet layout of provisioned spreadsheets.
type Config struct {
	Title     string
	SheetName string
	Schema    model.HeaderSchema
}

// Resolution is the outcome of ResolveOrCreate.
type Resolution struct {
	SpreadsheetID string
	Created       bool
}

// Resolver validates candidate references and provisions spreadsheets.
type Resolver struct {
	cfg Config
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// candidateState is the tagged outcome of probing a candidate
// reference.
type candidateState int

const (
	candidateAbsent candidateState = iota
	candidateAccessible
	candidateInaccessible
)

// probe checks whether the candidate spreadsheet is reachable.
// Any fetch failure maps to inaccessible; the caller falls through to
// creation rather than surfacing an error.
func (r *Resolver) probe(ctx context.Context, svc adapter.LedgerService, candidate string) (candidateState, []string) {
	if candidate == "" {
		return candidateAbsent, nil
	}
	titles, err := svc.SheetTitles(ctx, candidate)
	if err != nil {
		fmt.Printf("Discarding inaccessible spreadsheet %s: %v\n", candidate, err)
		return candidateInaccessible, nil
	}
	return candidateAccessible, titles
}

// ResolveOrCreate returns a usable spreadsheet id for the candidate
// reference, creating a fresh spreadsheet when the candidate is
// absent or inaccessible. An accessible spreadsheet missing the
// working sheet gets the sheet and header added; these are two remote
// calls, and a crash between them leaves a sheet without a header.
// A present sheet is assumed to already carry its header.
func (r *Resolver) ResolveOrCreate(ctx context.Context, svc adapter.LedgerService, candidate string) (*Resolution, error) {
	state, titles := r.probe(ctx, svc, candidate)

	if state == candidateAccessible {
		if !contains(titles, r.cfg.SheetName) {
			if err := svc.AddSheet(ctx, candidate, r.cfg.SheetName); err != nil {
				return nil, fmt.Errorf("failed to add sheet: %w", err)
			}
			if err := r.writeHeader(ctx, svc, candidate); err != nil {
				return nil, err
			}
		}
		return &Resolution{SpreadsheetID: candidate}, nil
	}

	// Absent or inaccessible: provision a fresh spreadsheet.
	id, err := svc.Create(ctx, r.cfg.Title, r.cfg.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	if err := r.writeHeader(ctx, svc, id); err != nil {
		return nil, err
	}

	return &Resolution{SpreadsheetID: id, Created: true}, nil
}

func (r *Resolver) writeHeader(ctx context.Context, svc adapter.LedgerService, spreadsheetID string) error {
	header := [][]string{r.cfg.Schema.Columns()}
	rng := r.cfg.Schema.HeaderRange(r.cfg.SheetName)
	if err := svc.WriteRange(ctx, spreadsheetID, rng, header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

func contains(titles []string, name string) bool {
	for _, t := range titles {
		if t == name {
			return true
		}
	}
	return false
}
