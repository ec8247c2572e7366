package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
)

// BulkSession holds the state of one interactive bulk analysis: the accepted
// file, the current result set, progress and the processing flag.
type BulkSession struct {
	pipeline  *Pipeline
	parser    ports.TabularParser
	exporters map[domain.ExportFormat]ports.ResultExporter
	settings  domain.Settings

	mu         sync.Mutex
	file       *domain.UploadedFile
	results    domain.ResultSet
	progress   domain.Progress
	processing bool
}

func NewBulkSession(
	pipeline *Pipeline,
	parser ports.TabularParser,
	settings domain.Settings,
	exporters ...ports.ResultExporter,
) *BulkSession {
	settings = settings.Normalize()
	byFormat := make(map[domain.ExportFormat]ports.ResultExporter, len(exporters))
	for _, exporter := range exporters {
		byFormat[exporter.Format()] = exporter
	}
	return &BulkSession{
		pipeline:  pipeline.ForColumn(settings.TextColumn),
		parser:    parser,
		exporters: byFormat,
		settings:  settings,
	}
}

// Accept stores file and clears previous results. Files without the tabular
// extension are ignored and leave the session unchanged.
func (s *BulkSession) Accept(file domain.UploadedFile) bool {
	if !domain.IsTabularFile(file.Name) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.file = &file
	s.results = domain.ResultSet{}
	s.progress = domain.Progress{}
	return true
}

func (s *BulkSession) File() (domain.UploadedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return domain.UploadedFile{}, false
	}
	return *s.file, true
}

// Process parses the accepted file and classifies its rows sequentially.
// onProgress is called after every row.
func (s *BulkSession) Process(ctx context.Context, onProgress func(domain.Progress)) (domain.ResultSet, error) {
	file, err := s.begin()
	if err != nil {
		return domain.ResultSet{}, err
	}
	defer s.finish()

	rows, err := s.parser.Parse(ctx, bytes.NewReader(file.Content))
	if err != nil {
		slog.WarnContext(ctx, "csv_parse_incomplete",
			"file", file.Name,
			"recovered_rows", len(rows),
			"error", err,
		)
	}

	set, err := s.pipeline.Run(ctx, rows, func(p domain.Progress) {
		s.mu.Lock()
		s.progress = p
		s.mu.Unlock()
		if onProgress != nil {
			onProgress(p)
		}
	})

	s.mu.Lock()
	s.results = set
	s.mu.Unlock()
	return set, err
}

func (s *BulkSession) begin() (domain.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrInvalidInput, "process batch", errors.New("no file accepted"))
	}
	if s.processing {
		return domain.UploadedFile{}, domain.WrapError(domain.ErrBatchInProgress, "process batch", errors.New("previous run still active"))
	}
	s.processing = true
	s.progress = domain.Progress{}
	s.results = domain.ResultSet{}
	return *s.file, nil
}

func (s *BulkSession) finish() {
	s.mu.Lock()
	s.processing = false
	s.mu.Unlock()
}

func (s *BulkSession) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

func (s *BulkSession) Progress() domain.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *BulkSession) Results() domain.ResultSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Preview returns the display window over the current results.
func (s *BulkSession) Preview() domain.Preview {
	return s.Results().Preview(s.settings.PreviewRows)
}

// Export serializes the full result set. It never mutates the results, so
// repeated calls produce identical output.
func (s *BulkSession) Export(w io.Writer, format domain.ExportFormat) (string, error) {
	exporter, ok := s.exporters[format]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "export results", fmt.Errorf("unsupported format %q", format))
	}
	if err := exporter.Export(w, s.Results()); err != nil {
		return "", fmt.Errorf("export results: %w", err)
	}
	return s.settings.ExportFilenameFor(format), nil
}
