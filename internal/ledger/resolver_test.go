package ledger

import (
	"context"
	"testing"

	"github.com/jun/dreamlog/backend/internal/adapter"
	"github.com/jun/dreamlog/backend/internal/adapter/memory"
	"github.com/jun/dreamlog/backend/internal/model"
)

func testResolver() *Resolver {
	return NewResolver(Config{
		Title:     "Dream List",
		SheetName: "Dreams",
		Schema:    model.SchemaThreeColumn,
	})
}

func TestResolveOrCreate_NoCandidate(t *testing.T) {
	m := memory.NewLedgerAdapter()
	r := testResolver()

	res, err := r.ResolveOrCreate(context.Background(), m, "")
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}
	if !res.Created {
		t.Error("Expected Created=true for fresh provisioning")
	}
	if res.SpreadsheetID == "" {
		t.Fatal("Expected non-empty spreadsheet id")
	}

	rows := m.Rows(res.SpreadsheetID, "Dreams")
	if len(rows) != 1 {
		t.Fatalf("Expected header row only, got %d rows", len(rows))
	}
	want := []string{"Timestamp", "Dream", "Author"}
	for i, col := range want {
		if rows[0][i] != col {
			t.Errorf("Header column %d: got %q, want %q", i, rows[0][i], col)
		}
	}
}

func TestResolveOrCreate_AccessibleCandidate(t *testing.T) {
	m := memory.NewLedgerAdapter()
	r := testResolver()
	ctx := context.Background()

	first, err := r.ResolveOrCreate(ctx, m, "")
	if err != nil {
		t.Fatalf("Initial provisioning failed: %v", err)
	}

	res, err := r.ResolveOrCreate(ctx, m, first.SpreadsheetID)
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}
	if res.Created {
		t.Error("Expected Created=false for accessible candidate")
	}
	if res.SpreadsheetID != first.SpreadsheetID {
		t.Errorf("Expected same id %q, got %q", first.SpreadsheetID, res.SpreadsheetID)
	}
	// Header is not duplicated on re-resolution.
	if rows := m.Rows(res.SpreadsheetID, "Dreams"); len(rows) != 1 {
		t.Errorf("Expected single header row, got %d rows", len(rows))
	}
}

func TestResolveOrCreate_IdempotentAcrossCalls(t *testing.T) {
	m := memory.NewLedgerAdapter()
	r := testResolver()
	ctx := context.Background()

	first, _ := r.ResolveOrCreate(ctx, m, "")
	a, _ := r.ResolveOrCreate(ctx, m, first.SpreadsheetID)
	b, err := r.ResolveOrCreate(ctx, m, first.SpreadsheetID)
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}
	if a.SpreadsheetID != b.SpreadsheetID {
		t.Errorf("Ids differ across calls: %q vs %q", a.SpreadsheetID, b.SpreadsheetID)
	}
	if b.Created {
		t.Error("Expected Created=false on repeat resolution")
	}
}

func TestResolveOrCreate_MissingSheetAdded(t *testing.T) {
	m := memory.NewLedgerAdapter()
	r := testResolver()
	ctx := context.Background()

	// A spreadsheet that exists but lacks the working sheet.
	id, _ := m.Create(ctx, "Personal", "Finances")

	res, err := r.ResolveOrCreate(ctx, m, id)
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}
	if res.Created {
		t.Error("Expected Created=false when reusing an accessible spreadsheet")
	}
	if res.SpreadsheetID != id {
		t.Errorf("Expected id %q, got %q", id, res.SpreadsheetID)
	}

	rows := m.Rows(id, "Dreams")
	if len(rows) != 1 || rows[0][0] != "Timestamp" {
		t.Errorf("Expected header written to new sheet, got %v", rows)
	}
}

func TestResolveOrCreate_InaccessibleFallsThrough(t *testing.T) {
	m := memory.NewLedgerAdapter()
	r := testResolver()

	res, err := r.ResolveOrCreate(context.Background(), m, "gone-spreadsheet")
	if err != nil {
		t.Fatalf("Expected silent recovery, got error: %v", err)
	}
	if !res.Created {
		t.Error("Expected Created=true after fallthrough")
	}
	if res.SpreadsheetID == "gone-spreadsheet" {
		t.Error("Expected a fresh spreadsheet id")
	}
}

func TestResolveOrCreate_PermissionDeniedFallsThrough(t *testing.T) {
	m := memory.NewLedgerAdapter()
	m.Fail["SheetTitles"] = adapter.ErrPermissionDenied
	r := testResolver()

	res, err := r.ResolveOrCreate(context.Background(), m, "forbidden-spreadsheet")
	if err != nil {
		t.Fatalf("Expected silent recovery, got error: %v", err)
	}
	if !res.Created {
		t.Error("Expected Created=true after fallthrough")
	}
}

func TestResolveOrCreate_CreateFailureSurfaces(t *testing.T) {
	m := memory.NewLedgerAdapter()
	m.Fail["Create"] = adapter.ErrPermissionDenied
	r := testResolver()

	_, err := r.ResolveOrCreate(context.Background(), m, "")
	if err == nil {
		t.Fatal("Expected creation failure to surface")
	}
}

func TestResolveOrCreate_TwoColumnSchema(t *testing.T) {
	m := memory.NewLedgerAdapter()
	r := NewResolver(Config{Title: "Dream List", SheetName: "Dreams", Schema: model.SchemaTwoColumn})

	res, err := r.ResolveOrCreate(context.Background(), m, "")
	if err != nil {
		t.Fatalf("ResolveOrCreate failed: %v", err)
	}
	rows := m.Rows(res.SpreadsheetID, "Dreams")
	if len(rows) != 1 || len(rows[0]) != 2 {
		t.Fatalf("Expected two-column header, got %v", rows)
	}
}
