package xlsxexport

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

func TestExportWritesResultsSheet(t *testing.T) {
	set := domain.ResultSet{Results: []domain.ClassificationResult{
		{
			Row:        domain.Row{Columns: []string{"Review", "Product"}, Values: map[string]string{"Review": "Great product", "Product": "Phone"}},
			Sentiment:  "positive",
			Confidence: "92.0%",
		},
		{
			Row:        domain.Row{Columns: []string{"Review"}, Values: map[string]string{"Review": "Terrible"}},
			Sentiment:  domain.SentimentError,
			Confidence: domain.ConfidenceError,
		},
	}}

	var buf bytes.Buffer
	exporter := New()
	if err := exporter.Export(&buf, set); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if exporter.Format() != domain.ExportXLSX {
		t.Fatalf("unexpected format %q", exporter.Format())
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	wantHeader := []string{"Review", "Product", "Sentiment", "Confidence"}
	for i, want := range wantHeader {
		if rows[0][i] != want {
			t.Fatalf("header[%d] = %q, want %q", i, rows[0][i], want)
		}
	}
	if rows[1][3] != "92.0%" || rows[2][2] != domain.SentimentError {
		t.Fatalf("unexpected data rows: %v", rows[1:])
	}
}
