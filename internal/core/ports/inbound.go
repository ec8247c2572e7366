package ports

import (
	"context"
	"io"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

// TextAnalyzer is the inbound contract for single-text sentiment analysis.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*domain.Analysis, error)
}

// BatchSubmitter accepts an uploaded tabular file for asynchronous bulk analysis.
type BatchSubmitter interface {
	Submit(ctx context.Context, filename string, body io.Reader) (*domain.Batch, error)
}

// BatchReader exposes batch progress, the display preview and exports.
type BatchReader interface {
	Get(ctx context.Context, id string, previewRows int) (*domain.BatchView, error)
	Export(ctx context.Context, id string, format domain.ExportFormat) (*domain.ExportFile, error)
}

// BatchProcessor runs the bulk pipeline for one submitted batch.
type BatchProcessor interface {
	ProcessByID(ctx context.Context, batchID string) error
}

// HistoryReader reads and clears the classifier's analysis history.
type HistoryReader interface {
	List(ctx context.Context) ([]domain.HistoryEntry, error)
	Clear(ctx context.Context) error
}

// DashboardBuilder aggregates classifier stats into chart-ready data.
type DashboardBuilder interface {
	Build(ctx context.Context) (*domain.Dashboard, error)
}

// SettingsManager reads and updates the console settings.
type SettingsManager interface {
	Current() domain.Settings
	Update(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}
