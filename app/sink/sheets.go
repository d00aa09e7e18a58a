package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ Sink = (*SheetsSink)(nil)

// SheetsSink appends rows to a Google Sheets tab. The connection is
// established lazily on first use; the destination tab and header row are
// created when missing.
type SheetsSink struct {
	credentialsFile string
	spreadsheetID   string
	tab             string
	header          []string

	mu  sync.Mutex
	svc *sheets.Service
}

func NewSheetsSink(credentialsFile, spreadsheetID, tab string, header []string) *SheetsSink {
	return &SheetsSink{
		credentialsFile: credentialsFile,
		spreadsheetID:   spreadsheetID,
		tab:             tab,
		header:          header,
	}
}

func (s *SheetsSink) Available() bool {
	return s.credentialsFile != "" && s.spreadsheetID != ""
}

// ensure connects and bootstraps the tab and header row. Holding the result
// in s.svc makes subsequent calls cheap.
func (s *SheetsSink) ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil {
		return nil
	}
	if !s.Available() {
		return fmt.Errorf("sink not configured")
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(s.credentialsFile))
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}

	spreadsheet, err := svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	tabExists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == s.tab {
			tabExists = true
			break
		}
	}

	if !tabExists {
		_, err = svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.tab},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to create tab %s: %w", s.tab, err)
		}
		slog.Info("Created sink tab", "tab", s.tab)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.spreadsheetID, s.tab+"!1:1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}

	if len(resp.Values) == 0 {
		headerRow := make([]interface{}, len(s.header))
		for i, h := range s.header {
			headerRow[i] = h
		}
		_, err = svc.Spreadsheets.Values.Append(s.spreadsheetID, s.tab+"!A1", &sheets.ValueRange{
			Values: [][]interface{}{headerRow},
		}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write header row: %w", err)
		}
		slog.Info("Wrote sink header row", "tab", s.tab)
	}

	s.svc = svc
	return nil
}

func (s *SheetsSink) ReadRows(ctx context.Context) ([][]string, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sink rows: %w", err)
	}

	if len(resp.Values) <= 1 {
		return nil, nil
	}

	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (s *SheetsSink) AppendRow(ctx context.Context, row []string) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.tab+"!A1", &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append sink row: %w", err)
	}

	return nil
}
