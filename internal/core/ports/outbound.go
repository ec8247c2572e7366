package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

// SentimentClassifier submits one text to the remote classification endpoint.
type SentimentClassifier interface {
	Predict(ctx context.Context, text string) (domain.Prediction, error)
}

// SentimentHistory reads and clears the remote analysis history.
type SentimentHistory interface {
	History(ctx context.Context) ([]domain.HistoryRecord, error)
	ClearHistory(ctx context.Context) error
}

// SentimentStats reads remote aggregate counts.
type SentimentStats interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

// TabularParser parses a delimited file with header-row semantics. On malformed
// input it returns the rows recovered so far together with the error.
type TabularParser interface {
	Parse(ctx context.Context, r io.Reader) ([]domain.Row, error)
}

// ResultExporter serializes a result set into one downloadable format.
type ResultExporter interface {
	Format() domain.ExportFormat
	ContentType() string
	Export(w io.Writer, set domain.ResultSet) error
}

// BatchRepository persists batch state and per-row results.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	UpdateStatus(ctx context.Context, id string, status domain.BatchStatus, errMessage string) error
	StartRun(ctx context.Context, id string, totalRows int) error
	AppendResult(ctx context.Context, id string, position int, result domain.ClassificationResult) error
	ListResults(ctx context.Context, id string, limit int) ([]domain.ClassificationResult, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes batch submission events.
type MessageQueue interface {
	PublishBatchSubmitted(ctx context.Context, batchID string) error
	SubscribeBatchSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// SettingsStore loads and saves the console settings.
type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

// SettingsSource returns the settings snapshot in effect.
type SettingsSource interface {
	Current() domain.Settings
}

// RowObserver receives per-row pipeline outcomes.
type RowObserver interface {
	ObserveRow(outcome string, duration time.Duration)
}

// BatchObserver receives batch lifecycle events.
type BatchObserver interface {
	StartBatch()
	FinishBatch(status domain.BatchStatus, duration time.Duration)
}
