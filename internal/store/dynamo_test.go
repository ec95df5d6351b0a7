package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestAccountStore_Get_NotFound(t *testing.T) {
	s := NewAccountStore(nil, "test-accounts")

	_, err := s.Get(context.Background(), "nobody@example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAccountStore_UpsertAndGet(t *testing.T) {
	s := NewAccountStore(nil, "test-accounts")
	ctx := context.Background()

	err := s.Upsert(ctx, "user@example.com", aws.String("blob-1"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	account, err := s.Get(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if account.Email != "user@example.com" {
		t.Errorf("Expected email 'user@example.com', got %q", account.Email)
	}
	if account.EncryptedSpreadsheetID == nil || *account.EncryptedSpreadsheetID != "blob-1" {
		t.Errorf("Expected reference 'blob-1', got %v", account.EncryptedSpreadsheetID)
	}
	if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestAccountStore_Upsert_Overwrite(t *testing.T) {
	s := NewAccountStore(nil, "test-accounts")
	ctx := context.Background()

	s.Upsert(ctx, "user@example.com", aws.String("blob-1"))
	first, _ := s.Get(ctx, "user@example.com")

	if err := s.Upsert(ctx, "user@example.com", aws.String("blob-2")); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	account, _ := s.Get(ctx, "user@example.com")
	if *account.EncryptedSpreadsheetID != "blob-2" {
		t.Errorf("Expected reference 'blob-2', got %q", *account.EncryptedSpreadsheetID)
	}
	if account.CreatedAt != first.CreatedAt {
		t.Error("Expected created_at to be preserved across updates")
	}
}

func TestAccountStore_Upsert_NilClearsReference(t *testing.T) {
	s := NewAccountStore(nil, "test-accounts")
	ctx := context.Background()

	s.Upsert(ctx, "user@example.com", aws.String("blob-1"))
	if err := s.Upsert(ctx, "user@example.com", nil); err != nil {
		t.Fatalf("Clearing upsert failed: %v", err)
	}

	account, err := s.Get(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Get after clear failed: %v", err)
	}
	if account.EncryptedSpreadsheetID != nil {
		t.Errorf("Expected cleared reference, got %q", *account.EncryptedSpreadsheetID)
	}
}

func TestProvisionLocker_SerializesSameIdentity(t *testing.T) {
	l := NewProvisionLocker(nil, "test-locks")
	ctx := context.Background()

	if err := l.Acquire(ctx, "user@example.com"); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	entered := make(chan struct{})
	go func() {
		l.Acquire(ctx, "user@example.com")
		close(entered)
		l.Release(ctx, "user@example.com")
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-entered:
		t.Fatal("Second acquire succeeded while lock was held")
	default:
	}

	if err := l.Release(ctx, "user@example.com"); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	<-entered
}
