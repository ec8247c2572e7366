package domain

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTextColumn     = "Review"
	DefaultPreviewRows    = 10
	DefaultExportFilename = "sentiment_analysis_results.csv"

	SentimentColumn  = "Sentiment"
	ConfidenceColumn = "Confidence"

	SentimentError  = "Error"
	ConfidenceError = "0%"

	TabularExtension = ".csv"
)

type BatchStatus string

const (
	BatchQueued     BatchStatus = "queued"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchCancelled  BatchStatus = "cancelled"
)

// UploadedFile is the raw content of one user supplied tabular file.
type UploadedFile struct {
	Name    string
	Size    int64
	Content []byte
}

// IsTabularFile reports whether name carries the accepted tabular extension.
func IsTabularFile(name string) bool {
	return strings.HasSuffix(name, TabularExtension)
}

// Row is one parsed record keyed by header name. Columns keeps the source header order.
type Row struct {
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

func (r Row) Value(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// HasText reports whether column is present and non-blank after trimming.
func (r Row) HasText(column string) bool {
	v, ok := r.Values[column]
	return ok && strings.TrimSpace(v) != ""
}

type ClassificationResult struct {
	Row        Row    `json:"row"`
	Sentiment  string `json:"sentiment"`
	Confidence string `json:"confidence"`
}

func FailedResult(row Row) ClassificationResult {
	return ClassificationResult{
		Row:        row,
		Sentiment:  SentimentError,
		Confidence: ConfidenceError,
	}
}

func (r ClassificationResult) Failed() bool {
	return r.Sentiment == SentimentError
}

// FormatConfidence renders a [0,1] score as a percentage with one decimal place.
// Exact ties round away from zero, so 0.8125 renders as "81.3%".
func FormatConfidence(confidence float64) string {
	return formatTenth(confidence*100) + "%"
}

// formatTenth formats v with one decimal place. strconv rounds exact binary
// ties to even; those are bumped away from zero here.
func formatTenth(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	scaled := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, big.NewFloat(10))
	whole, _ := scaled.Int(nil)
	frac := new(big.Float).SetPrec(128).Sub(scaled, new(big.Float).SetInt(whole))
	if frac.Cmp(big.NewFloat(0.5)) != 0 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}

	digits := whole.Add(whole, big.NewInt(1)).String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	out := digits[:len(digits)-1] + "." + digits[len(digits)-1:]
	if v < 0 {
		out = "-" + out
	}
	return out
}

type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// ResultSet holds the outcomes of one run in original row order.
type ResultSet struct {
	Results []ClassificationResult `json:"results"`
}

func (s ResultSet) Len() int {
	return len(s.Results)
}

// Columns returns the export header: the union of source columns in first-seen
// order followed by Sentiment and Confidence.
func (s ResultSet) Columns() []string {
	seen := map[string]struct{}{
		SentimentColumn:  {},
		ConfidenceColumn: {},
	}
	columns := make([]string, 0)
	for _, result := range s.Results {
		for _, column := range result.Row.Columns {
			if _, ok := seen[column]; ok {
				continue
			}
			seen[column] = struct{}{}
			columns = append(columns, column)
		}
	}
	return append(columns, SentimentColumn, ConfidenceColumn)
}

// Records returns one record per result aligned with Columns.
func (s ResultSet) Records() [][]string {
	columns := s.Columns()
	out := make([][]string, 0, len(s.Results))
	for _, result := range s.Results {
		record := make([]string, len(columns))
		for i, column := range columns {
			switch column {
			case SentimentColumn:
				record[i] = result.Sentiment
			case ConfidenceColumn:
				record[i] = result.Confidence
			default:
				record[i] = result.Row.Values[column]
			}
		}
		out = append(out, record)
	}
	return out
}

func (s ResultSet) Failed() int {
	n := 0
	for _, result := range s.Results {
		if result.Failed() {
			n++
		}
	}
	return n
}

func (s ResultSet) Preview(limit int) Preview {
	return NewPreview(s.Results, len(s.Results), limit)
}

// Preview is the display window over a ResultSet.
type Preview struct {
	Rows      []ClassificationResult `json:"rows"`
	Total     int                    `json:"total"`
	Truncated bool                   `json:"truncated"`
	Notice    string                 `json:"notice,omitempty"`
}

// NewPreview builds a preview from the first rows of a result set holding total entries.
func NewPreview(rows []ClassificationResult, total, limit int) Preview {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	preview := Preview{
		Rows:  rows,
		Total: total,
	}
	if total > limit {
		preview.Truncated = true
		preview.Notice = fmt.Sprintf("Showing first %d of %d results. Download CSV for complete data.", limit, total)
	}
	return preview
}

// Batch is the persisted state of one bulk run submitted over the API.
type Batch struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	StoragePath string      `json:"storage_path"`
	TextColumn  string      `json:"text_column"`
	Status      BatchStatus `json:"status"`
	TotalRows   int         `json:"total_rows"`
	Completed   int         `json:"completed_rows"`
	FailedRows  int         `json:"failed_rows"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (b Batch) Progress() Progress {
	return Progress{Completed: b.Completed, Total: b.TotalRows}
}

func (b Batch) Running() bool {
	return b.Status == BatchQueued || b.Status == BatchProcessing
}

type BatchView struct {
	Batch
	ProgressPercent float64 `json:"progress_percent"`
	Preview         Preview `json:"preview"`
}

type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
