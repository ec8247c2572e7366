package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

type BatchService struct {
	repo      ports.BatchRepository
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
	settings  ports.SettingsSource
	exporters map[domain.ExportFormat]ports.ResultExporter
}

func NewBatchService(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	settings ports.SettingsSource,
	exporters ...ports.ResultExporter,
) *BatchService {
	byFormat := make(map[domain.ExportFormat]ports.ResultExporter, len(exporters))
	for _, exporter := range exporters {
		byFormat[exporter.Format()] = exporter
	}
	return &BatchService{
		repo:      repo,
		storage:   storage,
		queue:     queue,
		settings:  settings,
		exporters: byFormat,
	}
}

func (uc *BatchService) Submit(ctx context.Context, filename string, body io.Reader) (*domain.Batch, error) {
	if !domain.IsTabularFile(filename) {
		return nil, domain.WrapError(domain.ErrUnsupportedFile, "submit batch", fmt.Errorf("expected %s file, got %q", domain.TabularExtension, filename))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	batch := &domain.Batch{
		ID:          id,
		Filename:    filename,
		StoragePath: storageKey,
		TextColumn:  uc.settings.Current().Normalize().TextColumn,
		Status:      domain.BatchQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	if err := uc.queue.PublishBatchSubmitted(ctx, batch.ID); err != nil {
		return nil, fmt.Errorf("publish batch event: %w", err)
	}
	return batch, nil
}

func (uc *BatchService) Get(ctx context.Context, id string, previewRows int) (*domain.BatchView, error) {
	batch, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if previewRows <= 0 {
		previewRows = uc.settings.Current().Normalize().PreviewRows
	}
	if previewRows > domain.MaxPreviewRows {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get batch", fmt.Errorf("preview limit must not exceed %d", domain.MaxPreviewRows))
	}

	rows, err := uc.repo.ListResults(ctx, id, previewRows)
	if err != nil {
		return nil, fmt.Errorf("list batch results: %w", err)
	}

	return &domain.BatchView{
		Batch:           *batch,
		ProgressPercent: batch.Progress().Percent(),
		Preview:         domain.NewPreview(rows, batch.Completed, previewRows),
	}, nil
}

func (uc *BatchService) Export(ctx context.Context, id string, format domain.ExportFormat) (*domain.ExportFile, error) {
	if format == "" {
		format = domain.ExportCSV
	}
	exporter, ok := uc.exporters[format]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export batch", fmt.Errorf("unsupported format %q", format))
	}

	batch, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Running() {
		return nil, domain.WrapError(domain.ErrBatchInProgress, "export batch", errors.New("results are not final yet"))
	}

	results, err := uc.repo.ListResults(ctx, id, 0)
	if err != nil {
		return nil, fmt.Errorf("list batch results: %w", err)
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, domain.ResultSet{Results: results}); err != nil {
		return nil, fmt.Errorf("export batch: %w", err)
	}
	return &domain.ExportFile{
		Filename:    uc.settings.Current().Normalize().ExportFilenameFor(format),
		ContentType: exporter.ContentType(),
		Content:     buf.Bytes(),
	}, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "upload.csv"
	}
	return base
}
