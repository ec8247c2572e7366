package csvcodec

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

const ContentType = "text/csv; charset=utf-8"

const utf8BOM = "\ufeff"

// Codec parses uploaded files with header-row semantics and writes result sets
// back out with the source columns followed by Sentiment and Confidence.
type Codec struct{}

func New() *Codec {
	return &Codec{}
}

func (c *Codec) Format() domain.ExportFormat { return domain.ExportCSV }

func (c *Codec) ContentType() string { return ContentType }

// Parse reads the first record as the header. Short records leave the missing
// fields absent and extra fields are dropped. On malformed input the rows read
// before the failure are returned along with the error.
func (c *Codec) Parse(ctx context.Context, r io.Reader) ([]domain.Row, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Row{}, nil
	}
	if err != nil {
		return []domain.Row{}, fmt.Errorf("read csv header: %w", err)
	}
	// Header names are kept as written; " Review" is not the Review column.
	columns := header

	rows := make([]domain.Row, 0)
	for {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("read csv record: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}
		rows = append(rows, toRow(columns, record))
	}
}

// Export writes set as RFC 4180 CSV with CRLF line endings.
func (c *Codec) Export(w io.Writer, set domain.ResultSet) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	if err := writer.Write(set.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(set.Records()); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return nil
}

func toRow(columns, record []string) domain.Row {
	n := min(len(columns), len(record))
	row := domain.Row{
		Columns: columns[:n:n],
		Values:  make(map[string]string, n),
	}
	for i := 0; i < n; i++ {
		if _, dup := row.Values[columns[i]]; dup {
			continue
		}
		row.Values[columns[i]] = record[i]
	}
	return row
}

// isBlankRecord matches the single empty field encoding/csv produces for
// whitespace-only lines.
func isBlankRecord(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
