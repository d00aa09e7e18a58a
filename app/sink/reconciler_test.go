package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msavelyev/productscout/app/catalog"
)

type fakeSink struct {
	available bool
	rows      [][]string
	readErr   error
	appendErr error
	appended  [][]string
}

func (s *fakeSink) Available() bool { return s.available }

func (s *fakeSink) ReadRows(ctx context.Context) ([][]string, error) {
	return s.rows, s.readErr
}

func (s *fakeSink) AppendRow(ctx context.Context, row []string) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, row)
	return nil
}

func approvedRecord() *catalog.Record {
	return &catalog.Record{
		ID:        "rec-1",
		Link:      "https://x.com/posts/acme",
		Title:     "Acme Tool",
		MakerName: "Jane Doe",
		Category:  "devtools",
		Status:    catalog.StatusApproved,
		CreatedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAddApprovedRecordAppendsRow(t *testing.T) {
	sink := &fakeSink{available: true}
	rec := approvedRecord()

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), rec)

	if !result.Synced || result.Duplicate {
		t.Fatalf("Expected synced non-duplicate result, got %+v", result)
	}
	if len(sink.appended) != 1 {
		t.Fatalf("Expected 1 appended row, got %d", len(sink.appended))
	}

	row := sink.appended[0]
	if len(row) != len(Header) {
		t.Fatalf("Expected row width %d, got %d", len(Header), len(row))
	}
	if row[colName] != "Acme Tool" || row[colMaker] != "Jane Doe" || row[colLink] != "https://x.com/posts/acme" {
		t.Errorf("Unexpected identity columns: %v", row[:3])
	}
	if row[len(row)-1] != "2024-06-01" {
		t.Errorf("Expected added-at date, got %q", row[len(row)-1])
	}
}

func TestMissingFieldsGetPlaceholder(t *testing.T) {
	sink := &fakeSink{available: true}
	rec := approvedRecord()
	rec.Tagline = ""
	rec.Website = ""

	NewReconciler(sink).AddApprovedRecord(context.Background(), rec)

	row := sink.appended[0]
	if row[4] != missingFieldPlaceholder || row[5] != missingFieldPlaceholder {
		t.Errorf("Expected placeholders for missing fields, got tagline=%q website=%q", row[4], row[5])
	}
}

func TestDuplicateByNameAndMaker(t *testing.T) {
	sink := &fakeSink{available: true, rows: [][]string{
		{"ACME Tool ", " jane doe", "https://elsewhere.com/post"},
	}}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if !result.Synced || !result.Duplicate {
		t.Errorf("Expected duplicate suppression, got %+v", result)
	}
	if len(sink.appended) != 0 {
		t.Errorf("Expected no append for duplicate, got %d rows", len(sink.appended))
	}
}

func TestSameNameDifferentMakerIsNotDuplicate(t *testing.T) {
	sink := &fakeSink{available: true, rows: [][]string{
		{"Acme Tool", "Someone Else", "https://elsewhere.com/post"},
	}}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if result.Duplicate {
		t.Error("Expected same name under a different maker to be appended")
	}
	if len(sink.appended) != 1 {
		t.Errorf("Expected 1 appended row, got %d", len(sink.appended))
	}
}

func TestDuplicateByNormalizedLink(t *testing.T) {
	// The sink row carries tracking params and a trailing slash; the match is
	// on the normalized form.
	sink := &fakeSink{available: true, rows: [][]string{
		{"Different Name", "Different Maker", "https://x.com/posts/acme/?utm_source=feed"},
	}}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if !result.Synced || !result.Duplicate {
		t.Errorf("Expected link-based duplicate suppression, got %+v", result)
	}
	if len(sink.appended) != 0 {
		t.Errorf("Expected no append, got %d rows", len(sink.appended))
	}
}

func TestUnavailableSinkReturnsRetryableResult(t *testing.T) {
	sink := &fakeSink{available: false}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if result.Synced {
		t.Error("Expected not-synced result for unavailable sink")
	}
	if result.Error == "" {
		t.Error("Expected error description in result")
	}
}

func TestReadFailureReturnsRetryableResult(t *testing.T) {
	sink := &fakeSink{available: true, readErr: errors.New("quota exceeded")}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if result.Synced {
		t.Error("Expected not-synced result on read failure")
	}
	if result.Error != "quota exceeded" {
		t.Errorf("Expected error to be carried through, got %q", result.Error)
	}
}

func TestAppendFailureReturnsRetryableResult(t *testing.T) {
	sink := &fakeSink{available: true, appendErr: errors.New("write failed")}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if result.Synced {
		t.Error("Expected not-synced result on append failure")
	}
}

func TestShortRowsAreIgnored(t *testing.T) {
	sink := &fakeSink{available: true, rows: [][]string{
		{"Acme Tool"},
		{},
	}}

	result := NewReconciler(sink).AddApprovedRecord(context.Background(), approvedRecord())

	if !result.Synced || result.Duplicate {
		t.Errorf("Expected short rows to be skipped, got %+v", result)
	}
}
