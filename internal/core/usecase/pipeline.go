package usecase

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

const (
	rowOutcomeSuccess = "success"
	rowOutcomeError   = "error"
)

// Pipeline classifies rows one at a time against the remote endpoint.
type Pipeline struct {
	classifier ports.SentimentClassifier
	observer   ports.RowObserver
	textColumn string
}

func NewPipeline(classifier ports.SentimentClassifier, observer ports.RowObserver, textColumn string) *Pipeline {
	if strings.TrimSpace(textColumn) == "" {
		textColumn = domain.DefaultTextColumn
	}
	return &Pipeline{
		classifier: classifier,
		observer:   observer,
		textColumn: textColumn,
	}
}

// ForColumn returns a pipeline reading the designated text from column.
func (p *Pipeline) ForColumn(column string) *Pipeline {
	return NewPipeline(p.classifier, p.observer, column)
}

func (p *Pipeline) TextColumn() string {
	return p.textColumn
}

// FilterRows keeps rows whose text column is present and non-blank, in order.
func FilterRows(rows []domain.Row, column string) []domain.Row {
	out := make([]domain.Row, 0, len(rows))
	for _, row := range rows {
		if row.HasText(column) {
			out = append(out, row)
		}
	}
	return out
}

// Run classifies every eligible row and reports progress after each one. A
// cancelled ctx stops the loop between rows; the rows finished so far are
// returned together with the context error.
func (p *Pipeline) Run(ctx context.Context, rows []domain.Row, onProgress func(domain.Progress)) (domain.ResultSet, error) {
	eligible := FilterRows(rows, p.textColumn)
	set := domain.ResultSet{Results: make([]domain.ClassificationResult, 0, len(eligible))}

	for result, progress := range p.stream(ctx, eligible) {
		set.Results = append(set.Results, result)
		if onProgress != nil {
			onProgress(progress)
		}
	}

	if len(set.Results) < len(eligible) {
		if err := ctx.Err(); err != nil {
			return set, err
		}
	}
	return set, nil
}

// Stream yields one result per completed row along with the progress after it.
func (p *Pipeline) Stream(ctx context.Context, rows []domain.Row) iter.Seq2[domain.ClassificationResult, domain.Progress] {
	return p.stream(ctx, FilterRows(rows, p.textColumn))
}

func (p *Pipeline) stream(ctx context.Context, eligible []domain.Row) iter.Seq2[domain.ClassificationResult, domain.Progress] {
	return func(yield func(domain.ClassificationResult, domain.Progress) bool) {
		progress := domain.Progress{Total: len(eligible)}
		for i, row := range eligible {
			if ctx.Err() != nil {
				return
			}
			result := p.classifyRow(ctx, i, row)
			progress.Completed++
			if !yield(result, progress) {
				return
			}
		}
	}
}

func (p *Pipeline) classifyRow(ctx context.Context, index int, row domain.Row) domain.ClassificationResult {
	text, _ := row.Value(p.textColumn)
	start := time.Now()

	// The in-flight call settles even when ctx is cancelled.
	prediction, err := p.classifier.Predict(context.WithoutCancel(ctx), text)
	if err == nil && strings.TrimSpace(prediction.Label) == "" {
		err = domain.WrapError(domain.ErrUpstream, "predict", errors.New("response has no prediction"))
	}
	if err != nil {
		slog.WarnContext(ctx, "row_classification_failed",
			"row", index,
			"error", err,
		)
		p.observe(rowOutcomeError, time.Since(start))
		return domain.FailedResult(row)
	}

	p.observe(rowOutcomeSuccess, time.Since(start))
	return domain.ClassificationResult{
		Row:        row,
		Sentiment:  prediction.Label,
		Confidence: domain.FormatConfidence(prediction.Confidence),
	}
}

func (p *Pipeline) observe(outcome string, d time.Duration) {
	if p.observer != nil {
		p.observer.ObserveRow(outcome, d)
	}
}
