// Package journal orchestrates one dream submission end to end:
// validation, credential refresh, reference resolution, the append,
// and persisting a newly provisioned reference.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jun/dreamlog/backend/internal/adapter"
	"github.com/jun/dreamlog/backend/internal/auth"
	"github.com/jun/dreamlog/backend/internal/crypto"
	"github.com/jun/dreamlog/backend/internal/ledger"
	"github.com/jun/dreamlog/backend/internal/model"
	"github.com/jun/dreamlog/backend/internal/store"
)

// MaxDreamLength is the maximum accepted dream text length, in
// characters.
const MaxDreamLength = 10000

const timestampLayout = "2006/01/02 15:04:05"

// Result reports where the entry landed and whether the spreadsheet
// was provisioned by this request.
type Result struct {
	SpreadsheetID string
	Created       bool
}

// Pipeline is the append pipeline. All collaborators are injected so
// tests can substitute fakes.
type Pipeline struct {
	accounts    store.ReferenceStore
	locker      store.Locker
	codec       crypto.Codec
	credentials *auth.CredentialManager
	provider    adapter.LedgerProvider
	resolver    *ledger.Resolver
	sheetName   string
	schema      model.HeaderSchema
	location    *time.Location
	now         func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	accounts store.ReferenceStore,
	locker store.Locker,
	codec crypto.Codec,
	credentials *auth.CredentialManager,
	provider adapter.LedgerProvider,
	resolver *ledger.Resolver,
	sheetName string,
	schema model.HeaderSchema,
	location *time.Location,
) *Pipeline {
	return &Pipeline{
		accounts:    accounts,
		locker:      locker,
		codec:       codec,
		credentials: credentials,
		provider:    provider,
		resolver:    resolver,
		sheetName:   sheetName,
		schema:      schema,
		location:    location,
		now:         time.Now,
	}
}

// Submit appends one dream entry for the identity. Failures short-
// circuit in order: validation, credential refresh, then the terminal
// spreadsheet calls. Decrypt and access failures on the stored
// reference never surface; they degrade to provisioning a fresh
// spreadsheet.
func (p *Pipeline) Submit(ctx context.Context, identity string, cred *auth.Credential, rawText, author string) (*Result, error) {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: dream text is required", ErrValidation)
	}
	if utf8.RuneCountInString(rawText) > MaxDreamLength {
		return nil, fmt.Errorf("%w: dream text exceeds %d characters", ErrValidation, MaxDreamLength)
	}

	if _, err := p.credentials.EnsureValid(ctx, cred); err != nil {
		return nil, err
	}

	candidate := p.loadReference(ctx, identity)

	// First-time provisioning is serialized per identity; a concurrent
	// request may have stored a reference while we waited.
	if candidate == "" {
		if err := p.locker.Acquire(ctx, identity); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
		}
		defer func() {
			if err := p.locker.Release(ctx, identity); err != nil {
				fmt.Printf("Failed to release provisioning lock for %s: %v\n", identity, err)
			}
		}()
		candidate = p.loadReference(ctx, identity)
	}

	svc, err := p.provider.GetService(ctx, cred.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}

	res, err := p.resolver.ResolveOrCreate(ctx, svc, candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}

	entry := model.Entry{
		Timestamp: p.now().In(p.location).Format(timestampLayout),
		Text:      trimmed,
		Author:    author,
	}
	rng := p.schema.Range(p.sheetName)
	if err := svc.AppendRange(ctx, res.SpreadsheetID, rng, [][]string{p.schema.Row(entry)}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteService, err)
	}

	if res.Created {
		blob, err := p.codec.Encrypt(ctx, res.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if err := p.accounts.Upsert(ctx, identity, &blob); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	return &Result{SpreadsheetID: res.SpreadsheetID, Created: res.Created}, nil
}

// loadReference returns the decrypted stored reference, or "" when the
// row is missing, empty, or the blob cannot be decrypted. All failure
// modes read as "no reference".
func (p *Pipeline) loadReference(ctx context.Context, identity string) string {
	account, err := p.accounts.Get(ctx, identity)
	if err != nil || account.EncryptedSpreadsheetID == nil {
		return ""
	}

	plaintext, err := p.codec.Decrypt(ctx, *account.EncryptedSpreadsheetID)
	if err != nil {
		fmt.Printf("Discarding undecryptable reference for %s: %v\n", identity, err)
		return ""
	}
	return plaintext
}
