package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

type predictReply struct {
	prediction domain.Prediction
	err        error
}

type classifierFake struct {
	mu      sync.Mutex
	replies map[string]predictReply
	calls   []string
	onCall  func(text string)
}

func (f *classifierFake) Predict(_ context.Context, text string) (domain.Prediction, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	reply, ok := f.replies[text]
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(text)
	}
	if !ok {
		return domain.Prediction{}, errors.New("unexpected text")
	}
	return reply.prediction, reply.err
}

type rowObserverFake struct {
	outcomes []string
}

func (f *rowObserverFake) ObserveRow(outcome string, _ time.Duration) {
	f.outcomes = append(f.outcomes, outcome)
}

type parserFake struct {
	rows []domain.Row
	err  error
}

func (f *parserFake) Parse(context.Context, io.Reader) ([]domain.Row, error) {
	return f.rows, f.err
}

type exporterFake struct {
	format domain.ExportFormat
	err    error
}

func (f *exporterFake) Format() domain.ExportFormat { return f.format }
func (f *exporterFake) ContentType() string         { return "text/plain" }

func (f *exporterFake) Export(w io.Writer, set domain.ResultSet) error {
	if f.err != nil {
		return f.err
	}
	if _, err := fmt.Fprintln(w, strings.Join(set.Columns(), "|")); err != nil {
		return err
	}
	for _, rec := range set.Records() {
		if _, err := fmt.Fprintln(w, strings.Join(rec, "|")); err != nil {
			return err
		}
	}
	return nil
}

func reviewRow(text string) domain.Row {
	return domain.Row{
		Columns: []string{domain.DefaultTextColumn},
		Values:  map[string]string{domain.DefaultTextColumn: text},
	}
}

func predicted(label string, confidence float64) predictReply {
	return predictReply{prediction: domain.Prediction{Label: label, Confidence: confidence}}
}
