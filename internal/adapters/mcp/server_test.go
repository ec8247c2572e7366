package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

type analyzerFake struct {
	err error
}

func (f analyzerFake) Analyze(_ context.Context, text string) (*domain.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	analysis := domain.NewAnalysis(domain.Prediction{Text: text, Label: "Negative", Confidence: 0.7})
	return &analysis, nil
}

type historyFake struct {
	entries []domain.HistoryEntry
}

func (f historyFake) List(context.Context) ([]domain.HistoryEntry, error) { return f.entries, nil }
func (f historyFake) Clear(context.Context) error                        { return nil }

type dashboardFake struct{}

func (dashboardFake) Build(context.Context) (*domain.Dashboard, error) {
	d := domain.BuildDashboard(domain.Stats{TotalReviews: 2, Positive: 1, Neutral: 1, AverageConfidence: 0.75}, time.Unix(0, 0))
	return &d, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected tool content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func newTestServer(analyzer analyzerFake, entries []domain.HistoryEntry) *Server {
	return NewServer("test", analyzer, historyFake{entries: entries}, dashboardFake{})
}

func TestAnalyzeSentimentTool(t *testing.T) {
	s := newTestServer(analyzerFake{}, nil)
	res, err := s.analyzeSentiment(context.Background(), callRequest(map[string]any{"text": "slow delivery"}))
	if err != nil {
		t.Fatalf("analyze_sentiment: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var analysis domain.Analysis
	if err := json.Unmarshal([]byte(resultText(t, res)), &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis.Label != "Negative" || analysis.ConfidenceLabel != "Moderately confident" {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
}

func TestAnalyzeSentimentToolErrors(t *testing.T) {
	s := newTestServer(analyzerFake{}, nil)
	res, err := s.analyzeSentiment(context.Background(), callRequest(map[string]any{}))
	if err != nil || !res.IsError {
		t.Fatalf("expected tool error for missing text, err=%v", err)
	}

	s = newTestServer(analyzerFake{err: domain.WrapError(domain.ErrTemporary, "predict", errors.New("503"))}, nil)
	res, err = s.analyzeSentiment(context.Background(), callRequest(map[string]any{"text": "x"}))
	if err != nil || !res.IsError {
		t.Fatalf("expected tool error for upstream failure, err=%v", err)
	}
	if !strings.Contains(resultText(t, res), "temporary failure") {
		t.Fatalf("unexpected error text %q", resultText(t, res))
	}
}

func TestSentimentStatsTool(t *testing.T) {
	s := newTestServer(analyzerFake{}, nil)
	res, err := s.sentimentStats(context.Background(), callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("sentiment_stats failed: %v", err)
	}
	var dashboard domain.Dashboard
	if err := json.Unmarshal([]byte(resultText(t, res)), &dashboard); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dashboard.Stats.TotalReviews != 2 || len(dashboard.Sentiments) != 3 {
		t.Fatalf("unexpected dashboard %+v", dashboard)
	}
}

func TestSentimentHistoryToolLimit(t *testing.T) {
	entries := make([]domain.HistoryEntry, 0, 5)
	for i := 0; i < 5; i++ {
		entries = append(entries, domain.NewHistoryEntry(domain.HistoryRecord{Text: "t", Prediction: "Neutral", Confidence: 0.5}))
	}
	s := newTestServer(analyzerFake{}, entries)

	res, err := s.sentimentHistory(context.Background(), callRequest(map[string]any{"limit": float64(2)}))
	if err != nil || res.IsError {
		t.Fatalf("sentiment_history failed: %v", err)
	}
	var got []domain.HistoryEntry
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}

	res, _ = s.sentimentHistory(context.Background(), callRequest(nil))
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil || len(got) != 5 {
		t.Fatalf("expected all 5 entries by default, got %d err=%v", len(got), err)
	}

	res, _ = s.sentimentHistory(context.Background(), callRequest(map[string]any{"limit": float64(0)}))
	if !res.IsError {
		t.Fatalf("expected error for zero limit")
	}
}
