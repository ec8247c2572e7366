package sentimentapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/resilience"
)

const defaultTimeout = 30 * time.Second

type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Executor   *resilience.Executor
}

// Client talks to the sentiment classification service. It implements the
// classifier, history and stats ports.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		executor:   executor,
	}
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Text       string   `json:"text"`
	Prediction string   `json:"prediction"`
	Confidence *float64 `json:"confidence"`
	Timestamp  int64    `json:"timestamp"`
	Error      string   `json:"error"`
}

func (c *Client) Predict(ctx context.Context, text string) (domain.Prediction, error) {
	var response predictResponse
	err := c.call(ctx, "predict", func(ctx context.Context) error {
		response = predictResponse{}
		return c.doJSON(ctx, http.MethodPost, "/predict", predictRequest{Text: text}, &response, "predict")
	})
	if err != nil {
		return domain.Prediction{}, err
	}

	if response.Error != "" {
		return domain.Prediction{}, domain.WrapError(domain.ErrUpstream, "predict", errors.New(response.Error))
	}
	if strings.TrimSpace(response.Prediction) == "" || response.Confidence == nil {
		return domain.Prediction{}, domain.WrapError(domain.ErrUpstream, "predict", errors.New("response is missing prediction or confidence"))
	}
	return domain.Prediction{
		Text:       response.Text,
		Label:      response.Prediction,
		Confidence: *response.Confidence,
		Timestamp:  response.Timestamp,
	}, nil
}

func (c *Client) History(ctx context.Context) ([]domain.HistoryRecord, error) {
	var records []domain.HistoryRecord
	err := c.call(ctx, "history", func(ctx context.Context) error {
		records = nil
		return c.doJSON(ctx, http.MethodGet, "/history", nil, &records, "history")
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, nil
}

func (c *Client) ClearHistory(ctx context.Context) error {
	return c.call(ctx, "clear_history", func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/history/clear", nil, nil, "clear_history")
	})
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := c.call(ctx, "stats", func(ctx context.Context) error {
		stats = domain.Stats{}
		return c.doJSON(ctx, http.MethodGet, "/stats", nil, &stats, "stats")
	})
	if err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	err := c.executor.Execute(ctx, "sentiment_api."+operation, fn, classifyAPIError)
	return wrapError(operation, err)
}
