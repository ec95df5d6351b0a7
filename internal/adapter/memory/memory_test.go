package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/jun/dreamlog/backend/internal/adapter"
)

func TestLedgerAdapter_CreateAndTitles(t *testing.T) {
	m := NewLedgerAdapter()
	ctx := context.Background()

	id, err := m.Create(ctx, "Dream List", "Dreams")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("Expected non-empty spreadsheet id")
	}

	titles, err := m.SheetTitles(ctx, id)
	if err != nil {
		t.Fatalf("SheetTitles failed: %v", err)
	}
	if len(titles) != 1 || titles[0] != "Dreams" {
		t.Errorf("Expected [Dreams], got %v", titles)
	}
}

func TestLedgerAdapter_SheetTitles_NotFound(t *testing.T) {
	m := NewLedgerAdapter()

	_, err := m.SheetTitles(context.Background(), "missing")
	if !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLedgerAdapter_WriteAndAppend(t *testing.T) {
	m := NewLedgerAdapter()
	ctx := context.Background()

	id, _ := m.Create(ctx, "Dream List", "Dreams")

	if err := m.WriteRange(ctx, id, "Dreams!A1:C1", [][]string{{"Timestamp", "Dream", "Author"}}); err != nil {
		t.Fatalf("WriteRange failed: %v", err)
	}
	if err := m.AppendRange(ctx, id, "Dreams!A:C", [][]string{{"2024-01-01", "flying", "Alice"}}); err != nil {
		t.Fatalf("AppendRange failed: %v", err)
	}
	if err := m.AppendRange(ctx, id, "Dreams!A:C", [][]string{{"2024-01-02", "falling", "Alice"}}); err != nil {
		t.Fatalf("AppendRange failed: %v", err)
	}

	rows := m.Rows(id, "Dreams")
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows (header + 2 entries), got %d", len(rows))
	}
	if rows[0][0] != "Timestamp" {
		t.Errorf("Expected header first, got %v", rows[0])
	}
	if rows[2][1] != "falling" {
		t.Errorf("Expected appended row last, got %v", rows[2])
	}

	// Overwriting the header does not disturb entry rows.
	if err := m.WriteRange(ctx, id, "Dreams!A1:C1", [][]string{{"Timestamp", "Dream", "Author"}}); err != nil {
		t.Fatalf("WriteRange failed: %v", err)
	}
	if got := len(m.Rows(id, "Dreams")); got != 3 {
		t.Errorf("Expected 3 rows after header rewrite, got %d", got)
	}
}

func TestLedgerAdapter_RecordsCalls(t *testing.T) {
	m := NewLedgerAdapter()
	ctx := context.Background()

	id, _ := m.Create(ctx, "Dream List", "Dreams")
	m.SheetTitles(ctx, id)
	m.AppendRange(ctx, id, "Dreams!A:C", [][]string{{"x", "y", "z"}})

	if m.CallCount() != 3 {
		t.Errorf("Expected 3 recorded calls, got %d: %v", m.CallCount(), m.Calls)
	}
}

func TestLedgerAdapter_Fail(t *testing.T) {
	m := NewLedgerAdapter()
	boom := errors.New("boom")
	m.Fail["Create"] = boom

	_, err := m.Create(context.Background(), "Dream List", "Dreams")
	if !errors.Is(err, boom) {
		t.Errorf("Expected injected error, got %v", err)
	}
}
