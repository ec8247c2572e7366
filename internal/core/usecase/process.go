package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

type ProcessBatchUseCase struct {
	repo     ports.BatchRepository
	storage  ports.ObjectStorage
	parser   ports.TabularParser
	pipeline *Pipeline
	observer ports.BatchObserver
}

func NewProcessBatchUseCase(
	repo ports.BatchRepository,
	storage ports.ObjectStorage,
	parser ports.TabularParser,
	pipeline *Pipeline,
	observer ports.BatchObserver,
) *ProcessBatchUseCase {
	return &ProcessBatchUseCase{
		repo:     repo,
		storage:  storage,
		parser:   parser,
		pipeline: pipeline,
		observer: observer,
	}
}

func (uc *ProcessBatchUseCase) ProcessByID(ctx context.Context, batchID string) error {
	start := time.Now()
	if uc.observer != nil {
		uc.observer.StartBatch()
	}
	status, err := uc.process(ctx, batchID)
	if uc.observer != nil {
		uc.observer.FinishBatch(status, time.Since(start))
	}
	return err
}

func (uc *ProcessBatchUseCase) process(ctx context.Context, batchID string) (domain.BatchStatus, error) {
	batch, err := uc.repo.GetByID(ctx, batchID)
	if err != nil {
		return domain.BatchFailed, fmt.Errorf("fetch batch by id: %w", err)
	}
	if batch.Status == domain.BatchCompleted {
		slog.InfoContext(ctx, "batch_already_completed", "batch_id", batchID)
		return domain.BatchCompleted, nil
	}

	if err := uc.repo.UpdateStatus(ctx, batchID, domain.BatchProcessing, ""); err != nil {
		return domain.BatchFailed, fmt.Errorf("set status=processing: %w", err)
	}

	rows, err := uc.loadRows(ctx, batch)
	if err != nil {
		return domain.BatchFailed, uc.fail(ctx, batchID, err)
	}

	pipeline := uc.pipeline.ForColumn(batch.TextColumn)
	eligible := FilterRows(rows, pipeline.TextColumn())
	if err := uc.repo.StartRun(ctx, batchID, len(eligible)); err != nil {
		return domain.BatchFailed, uc.fail(ctx, batchID, fmt.Errorf("start run: %w", err))
	}

	// Writes use a detached context so the last settled row is persisted on shutdown.
	persistCtx := context.WithoutCancel(ctx)
	completed := 0
	for result, progress := range pipeline.Stream(ctx, eligible) {
		completed = progress.Completed
		if err := uc.repo.AppendResult(persistCtx, batchID, progress.Completed-1, result); err != nil {
			return domain.BatchFailed, uc.fail(persistCtx, batchID, fmt.Errorf("save result: %w", err))
		}
		slog.DebugContext(ctx, "batch_progress",
			"batch_id", batchID,
			"completed", progress.Completed,
			"total", progress.Total,
			"percent", progress.Percent(),
		)
	}

	// A shutdown that lands after the last row still counts as a finished run.
	if err := ctx.Err(); err != nil && completed < len(eligible) {
		if updErr := uc.repo.UpdateStatus(persistCtx, batchID, domain.BatchCancelled, err.Error()); updErr != nil {
			return domain.BatchCancelled, fmt.Errorf("%w; mark cancelled status: %v", err, updErr)
		}
		return domain.BatchCancelled, err
	}

	if err := uc.repo.UpdateStatus(persistCtx, batchID, domain.BatchCompleted, ""); err != nil {
		return domain.BatchFailed, fmt.Errorf("set status=completed: %w", err)
	}
	slog.InfoContext(ctx, "batch_completed", "batch_id", batchID, "rows", len(eligible))
	return domain.BatchCompleted, nil
}

func (uc *ProcessBatchUseCase) loadRows(ctx context.Context, batch *domain.Batch) ([]domain.Row, error) {
	body, err := uc.storage.Open(ctx, batch.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer body.Close()

	rows, err := uc.parser.Parse(ctx, body)
	if err != nil {
		slog.WarnContext(ctx, "csv_parse_incomplete",
			"batch_id", batch.ID,
			"recovered_rows", len(rows),
			"error", err,
		)
	}
	return rows, nil
}

func (uc *ProcessBatchUseCase) fail(ctx context.Context, batchID string, processErr error) error {
	if failErr := uc.repo.UpdateStatus(ctx, batchID, domain.BatchFailed, processErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, failErr)
	}
	return processErr
}
