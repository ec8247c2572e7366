package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

type AnalyzeService struct {
	classifier ports.SentimentClassifier
}

func NewAnalyzeService(classifier ports.SentimentClassifier) *AnalyzeService {
	return &AnalyzeService{classifier: classifier}
}

func (uc *AnalyzeService) Analyze(ctx context.Context, text string) (*domain.Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze", errors.New("text is required"))
	}
	if utf8.RuneCountInString(text) > domain.MaxAnalyzeTextLength {
		return nil, domain.WrapError(domain.ErrInvalidInput, "analyze", fmt.Errorf("text exceeds %d characters", domain.MaxAnalyzeTextLength))
	}

	prediction, err := uc.classifier.Predict(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("predict sentiment: %w", err)
	}
	if strings.TrimSpace(prediction.Label) == "" {
		return nil, domain.WrapError(domain.ErrUpstream, "analyze", errors.New("response has no prediction"))
	}
	if prediction.Text == "" {
		prediction.Text = text
	}
	analysis := domain.NewAnalysis(prediction)
	return &analysis, nil
}

type HistoryService struct {
	history ports.SentimentHistory
}

func NewHistoryService(history ports.SentimentHistory) *HistoryService {
	return &HistoryService{history: history}
}

func (uc *HistoryService) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	records, err := uc.history.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	out := make([]domain.HistoryEntry, 0, len(records))
	for _, record := range records {
		out = append(out, domain.NewHistoryEntry(record))
	}
	return out, nil
}

func (uc *HistoryService) Clear(ctx context.Context) error {
	if err := uc.history.ClearHistory(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

type DashboardService struct {
	stats ports.SentimentStats
	now   func() time.Time
}

func NewDashboardService(stats ports.SentimentStats) *DashboardService {
	return &DashboardService{stats: stats, now: time.Now}
}

func (uc *DashboardService) Build(ctx context.Context) (*domain.Dashboard, error) {
	stats, err := uc.stats.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	dash := domain.BuildDashboard(stats, uc.now())
	return &dash, nil
}
