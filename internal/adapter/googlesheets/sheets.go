package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jun/dreamlog/backend/internal/adapter"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAdapter implements adapter.LedgerService for Google Sheets.
type SheetsAdapter struct {
	service *sheets.Service
}

// NewSheetsAdapter creates a new SheetsAdapter.
// client should be an authenticated http.Client with specific user credentials.
func NewSheetsAdapter(ctx context.Context, client *http.Client) (*SheetsAdapter, error) {
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %v", err)
	}
	return &SheetsAdapter{service: srv}, nil
}

// Create creates a new spreadsheet with one named sheet and returns
// its id.
func (a *SheetsAdapter) Create(ctx context.Context, title, sheetName string) (string, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetName}},
		},
	}

	res, err := a.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %v", err)
	}
	return res.SpreadsheetId, nil
}

// SheetTitles returns the titles of the spreadsheet's sheets.
func (a *SheetsAdapter) SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error) {
	res, err := a.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets(properties(title))").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		if isPermissionDenied(err) {
			return nil, adapter.ErrPermissionDenied
		}
		return nil, fmt.Errorf("unable to get spreadsheet: %v", err)
	}

	titles := make([]string, 0, len(res.Sheets))
	for _, s := range res.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// AddSheet adds a named sheet to an existing spreadsheet.
func (a *SheetsAdapter) AddSheet(ctx context.Context, spreadsheetID, name string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			},
		},
	}

	_, err := a.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to add sheet: %v", err)
	}
	return nil
}

// WriteRange overwrites the cells in the given range.
func (a *SheetsAdapter) WriteRange(ctx context.Context, spreadsheetID, rng string, rows [][]string) error {
	_, err := a.service.Spreadsheets.Values.Update(spreadsheetID, rng, valueRange(rng, rows)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to write range: %v", err)
	}
	return nil
}

// AppendRange appends rows after the last populated row of the range.
func (a *SheetsAdapter) AppendRange(ctx context.Context, spreadsheetID, rng string, rows [][]string) error {
	_, err := a.service.Spreadsheets.Values.Append(spreadsheetID, rng, valueRange(rng, rows)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to append range: %v", err)
	}
	return nil
}

func valueRange(rng string, rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return &sheets.ValueRange{Range: rng, Values: values}
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 404
	}
	return false
}

func isPermissionDenied(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 403
	}
	return false
}
