package adapter

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a spreadsheet does not exist.
	ErrNotFound = errors.New("spreadsheet not found")

	// ErrPermissionDenied is returned when the credential cannot access
	// the spreadsheet.
	ErrPermissionDenied = errors.New("spreadsheet access denied")
)

// LedgerService defines the interface for the remote spreadsheet
// service. This abstraction allows switching between Google Sheets and
// the in-memory implementation without changing the core logic.
// Range addressing is A1-style: "SheetName!ColStart:ColEnd".
type LedgerService interface {
	// Create creates a new spreadsheet containing one sheet with the
	// given name, returning the spreadsheet id.
	Create(ctx context.Context, title, sheetName string) (string, error)

	// SheetTitles returns the titles of the spreadsheet's sheets.
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)

	// AddSheet adds a named sheet to an existing spreadsheet.
	AddSheet(ctx context.Context, spreadsheetID, name string) error

	// WriteRange overwrites the cells in the given range.
	WriteRange(ctx context.Context, spreadsheetID, rng string, rows [][]string) error

	// AppendRange appends rows after the last populated row of the
	// range. Existing rows are never overwritten.
	AppendRange(ctx context.Context, spreadsheetID, rng string, rows [][]string) error
}
