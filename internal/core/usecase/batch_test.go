package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

type statusCall struct {
	status domain.BatchStatus
	errMsg string
}

type batchRepoFake struct {
	mu          sync.Mutex
	batch       *domain.Batch
	created     *domain.Batch
	getErr      error
	createErr   error
	appendErr   error
	statusErr   error
	statusCalls []statusCall
	results     map[int]domain.ClassificationResult
	listLimit   int
}

func (f *batchRepoFake) Create(_ context.Context, batch *domain.Batch) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyBatch := *batch
	f.created = &copyBatch
	return nil
}

func (f *batchRepoFake) GetByID(context.Context, string) (*domain.Batch, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyBatch := *f.batch
	return &copyBatch, nil
}

func (f *batchRepoFake) UpdateStatus(_ context.Context, _ string, status domain.BatchStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if f.statusErr != nil && status != domain.BatchFailed {
		return f.statusErr
	}
	if f.batch != nil {
		f.batch.Status = status
	}
	return nil
}

func (f *batchRepoFake) StartRun(_ context.Context, _ string, totalRows int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batch.TotalRows = totalRows
	f.batch.Completed = 0
	f.batch.FailedRows = 0
	f.results = map[int]domain.ClassificationResult{}
	return nil
}

func (f *batchRepoFake) AppendResult(_ context.Context, _ string, position int, result domain.ClassificationResult) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = map[int]domain.ClassificationResult{}
	}
	f.results[position] = result
	f.batch.Completed++
	if result.Failed() {
		f.batch.FailedRows++
	}
	return nil
}

func (f *batchRepoFake) ListResults(_ context.Context, _ string, limit int) ([]domain.ClassificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listLimit = limit
	positions := make([]int, 0, len(f.results))
	for pos := range f.results {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	out := make([]domain.ClassificationResult, 0, len(positions))
	for _, pos := range positions {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, f.results[pos])
	}
	return out, nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	saveErr   error
	openErr   error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(f.savedBody)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishBatchSubmitted(_ context.Context, batchID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, batchID)
	return nil
}

func (f *queueFake) SubscribeBatchSubmitted(context.Context, func(context.Context, string) error) error {
	return nil
}

func settingsFor(column string, previewRows int) StaticSettings {
	return StaticSettings{TextColumn: column, PreviewRows: previewRows}
}

func TestBatchSubmitSavesCreatesAndPublishes(t *testing.T) {
	repo := &batchRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	svc := NewBatchService(repo, storage, queue, settingsFor("Comment", 0))

	batch, err := svc.Submit(context.Background(), "my reviews.csv", strings.NewReader("Comment\nok\n"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if batch.Status != domain.BatchQueued || batch.TextColumn != "Comment" {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	if !strings.HasSuffix(storage.savedKey, "_my_reviews.csv") || !strings.HasPrefix(storage.savedKey, batch.ID) {
		t.Fatalf("unexpected storage key %q", storage.savedKey)
	}
	if storage.savedBody != "Comment\nok\n" {
		t.Fatalf("unexpected stored body %q", storage.savedBody)
	}
	if repo.created == nil || repo.created.ID != batch.ID {
		t.Fatalf("batch was not persisted")
	}
	if len(queue.published) != 1 || queue.published[0] != batch.ID {
		t.Fatalf("unexpected published ids %v", queue.published)
	}
}

func TestBatchSubmitRejectsNonTabular(t *testing.T) {
	storage := &storageFake{}
	svc := NewBatchService(&batchRepoFake{}, storage, &queueFake{}, settingsFor("", 0))

	_, err := svc.Submit(context.Background(), "reviews.xlsx", strings.NewReader("x"))
	if !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
	if storage.savedKey != "" {
		t.Fatalf("rejected file must not be stored")
	}
}

func TestBatchSubmitPropagatesPublishError(t *testing.T) {
	svc := NewBatchService(&batchRepoFake{}, &storageFake{}, &queueFake{err: errors.New("nats down")}, settingsFor("", 0))
	if _, err := svc.Submit(context.Background(), "a.csv", strings.NewReader("Review\n")); err == nil {
		t.Fatalf("expected publish error")
	}
}

func completedRepo(n int) *batchRepoFake {
	repo := &batchRepoFake{
		batch:   &domain.Batch{ID: "b-1", Status: domain.BatchCompleted, TotalRows: n, Completed: n},
		results: map[int]domain.ClassificationResult{},
	}
	for i := 0; i < n; i++ {
		repo.results[i] = domain.ClassificationResult{Row: reviewRow("r"), Sentiment: "Positive", Confidence: "90.0%"}
	}
	return repo
}

func TestBatchGetBuildsPreview(t *testing.T) {
	repo := completedRepo(12)
	svc := NewBatchService(repo, &storageFake{}, &queueFake{}, settingsFor("", 0))

	view, err := svc.Get(context.Background(), "b-1", 0)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if repo.listLimit != domain.DefaultPreviewRows {
		t.Fatalf("expected list limit %d, got %d", domain.DefaultPreviewRows, repo.listLimit)
	}
	if len(view.Preview.Rows) != 10 || view.Preview.Total != 12 || !view.Preview.Truncated {
		t.Fatalf("unexpected preview: %+v", view.Preview)
	}
	if view.Preview.Notice != "Showing first 10 of 12 results. Download CSV for complete data." {
		t.Fatalf("unexpected notice %q", view.Preview.Notice)
	}
	if view.ProgressPercent != 100 {
		t.Fatalf("unexpected progress %v", view.ProgressPercent)
	}

	if _, err := svc.Get(context.Background(), "b-1", domain.MaxPreviewRows+1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized preview, got %v", err)
	}
}

func TestBatchGetNotFound(t *testing.T) {
	repo := &batchRepoFake{getErr: domain.WrapError(domain.ErrBatchNotFound, "get batch", errors.New("no rows"))}
	svc := NewBatchService(repo, &storageFake{}, &queueFake{}, settingsFor("", 0))
	if _, err := svc.Get(context.Background(), "missing", 0); !errors.Is(err, domain.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}

func TestBatchExport(t *testing.T) {
	repo := completedRepo(3)
	svc := NewBatchService(repo, &storageFake{}, &queueFake{}, settingsFor("", 0),
		&exporterFake{format: domain.ExportCSV},
		&exporterFake{format: domain.ExportXLSX},
	)

	file, err := svc.Export(context.Background(), "b-1", "")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if repo.listLimit != 0 {
		t.Fatalf("export must list all results, got limit %d", repo.listLimit)
	}
	if file.Filename != domain.DefaultExportFilename {
		t.Fatalf("unexpected filename %q", file.Filename)
	}
	if got := strings.Count(string(file.Content), "\n"); got != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", got)
	}

	xlsx, err := svc.Export(context.Background(), "b-1", domain.ExportXLSX)
	if err != nil || xlsx.Filename != "sentiment_analysis_results.xlsx" {
		t.Fatalf("unexpected xlsx export: %+v err=%v", xlsx, err)
	}

	if _, err := svc.Export(context.Background(), "b-1", "pdf"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBatchExportRejectsRunningBatch(t *testing.T) {
	repo := completedRepo(1)
	repo.batch.Status = domain.BatchProcessing
	svc := NewBatchService(repo, &storageFake{}, &queueFake{}, settingsFor("", 0), &exporterFake{format: domain.ExportCSV})

	if _, err := svc.Export(context.Background(), "b-1", domain.ExportCSV); !errors.Is(err, domain.ErrBatchInProgress) {
		t.Fatalf("expected ErrBatchInProgress, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"my file.csv":      "my_file.csv",
		"../../etc/pw.csv": "pw.csv",
		"отзывы.csv":       "______.csv",
		"":                 "upload.csv",
		"data-2024_v1.csv": "data-2024_v1.csv",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
