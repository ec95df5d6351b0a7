// Package memory provides an in-process LedgerService used by tests
// and DEV_MODE. It records every remote call so tests can assert on
// traffic, and supports simulating lost or forbidden spreadsheets.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jun/dreamlog/backend/internal/adapter"
)

// Spreadsheet is one in-memory spreadsheet: named sheets mapping to
// their rows (header included).
type Spreadsheet struct {
	Title  string
	Sheets map[string][][]string
}

// LedgerAdapter implements adapter.LedgerService in memory.
type LedgerAdapter struct {
	mu           sync.Mutex
	nextID       int
	spreadsheets map[string]*Spreadsheet

	// Calls records every operation as "Op spreadsheetID".
	Calls []string

	// Fail, when set, makes the named operations return the given
	// error. Keyed by operation name ("Create", "SheetTitles", ...).
	Fail map[string]error
}

// NewLedgerAdapter creates an empty in-memory ledger service.
func NewLedgerAdapter() *LedgerAdapter {
	return &LedgerAdapter{
		spreadsheets: make(map[string]*Spreadsheet),
		Fail:         make(map[string]error),
	}
}

func (m *LedgerAdapter) record(op, id string) {
	m.Calls = append(m.Calls, fmt.Sprintf("%s %s", op, id))
}

// CallCount returns how many operations have been recorded.
func (m *LedgerAdapter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Drop removes a spreadsheet, simulating remote deletion.
func (m *LedgerAdapter) Drop(spreadsheetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.spreadsheets, spreadsheetID)
}

// Rows returns a copy of a sheet's rows.
func (m *LedgerAdapter) Rows(spreadsheetID, sheetName string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ss, ok := m.spreadsheets[spreadsheetID]
	if !ok {
		return nil
	}
	rows := ss.Sheets[sheetName]
	out := make([][]string, len(rows))
	copy(out, rows)
	return out
}

// Create creates a new spreadsheet with one named sheet.
func (m *LedgerAdapter) Create(_ context.Context, title, sheetName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create", "")
	if err := m.Fail["Create"]; err != nil {
		return "", err
	}

	m.nextID++
	id := fmt.Sprintf("sheet-%d", m.nextID)
	m.spreadsheets[id] = &Spreadsheet{
		Title:  title,
		Sheets: map[string][][]string{sheetName: {}},
	}
	return id, nil
}

// SheetTitles returns the sheet names of a spreadsheet.
func (m *LedgerAdapter) SheetTitles(_ context.Context, spreadsheetID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("SheetTitles", spreadsheetID)
	if err := m.Fail["SheetTitles"]; err != nil {
		return nil, err
	}

	ss, ok := m.spreadsheets[spreadsheetID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	titles := make([]string, 0, len(ss.Sheets))
	for name := range ss.Sheets {
		titles = append(titles, name)
	}
	return titles, nil
}

// AddSheet adds a named sheet.
func (m *LedgerAdapter) AddSheet(_ context.Context, spreadsheetID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AddSheet", spreadsheetID)
	if err := m.Fail["AddSheet"]; err != nil {
		return err
	}

	ss, ok := m.spreadsheets[spreadsheetID]
	if !ok {
		return adapter.ErrNotFound
	}
	if _, exists := ss.Sheets[name]; !exists {
		ss.Sheets[name] = [][]string{}
	}
	return nil
}

// WriteRange overwrites rows starting at the top of the range.
func (m *LedgerAdapter) WriteRange(_ context.Context, spreadsheetID, rng string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("WriteRange", spreadsheetID)
	if err := m.Fail["WriteRange"]; err != nil {
		return err
	}

	ss, ok := m.spreadsheets[spreadsheetID]
	if !ok {
		return adapter.ErrNotFound
	}
	sheetName := sheetFromRange(rng)
	existing := ss.Sheets[sheetName]
	for i, row := range rows {
		if i < len(existing) {
			existing[i] = row
		} else {
			existing = append(existing, row)
		}
	}
	ss.Sheets[sheetName] = existing
	return nil
}

// AppendRange appends rows after the last populated row.
func (m *LedgerAdapter) AppendRange(_ context.Context, spreadsheetID, rng string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("AppendRange", spreadsheetID)
	if err := m.Fail["AppendRange"]; err != nil {
		return err
	}

	ss, ok := m.spreadsheets[spreadsheetID]
	if !ok {
		return adapter.ErrNotFound
	}
	sheetName := sheetFromRange(rng)
	ss.Sheets[sheetName] = append(ss.Sheets[sheetName], rows...)
	return nil
}

// sheetFromRange extracts the sheet name from "Dreams!A:C".
func sheetFromRange(rng string) string {
	for i := 0; i < len(rng); i++ {
		if rng[i] == '!' {
			return rng[:i]
		}
	}
	return rng
}

// Provider implements adapter.LedgerProvider returning a shared
// in-memory adapter regardless of token.
type Provider struct {
	Adapter *LedgerAdapter
}

// NewProvider creates a Provider around a single shared adapter.
func NewProvider() *Provider {
	return &Provider{Adapter: NewLedgerAdapter()}
}

// GetService returns the shared in-memory adapter.
func (p *Provider) GetService(_ context.Context, _ string) (adapter.LedgerService, error) {
	return p.Adapter, nil
}
