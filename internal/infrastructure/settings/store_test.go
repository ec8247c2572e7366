package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

func TestLoadMissingFileReturnsFallback(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"), domain.Settings{TextColumn: "Comment"})

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.TextColumn != "Comment" || got.PreviewRows != domain.DefaultPreviewRows {
		t.Fatalf("unexpected fallback: %+v", got)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.yaml")
	store := NewFileStore(path, domain.DefaultSettings())

	want := domain.Settings{TextColumn: "Text", PreviewRows: 25, ExportFilename: "out.csv"}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !strings.Contains(string(raw), "text_column: Text") {
		t.Fatalf("unexpected yaml:\n%s", raw)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestLoadPartialFileKeepsFallbackFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("preview_rows: 5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewFileStore(path, domain.DefaultSettings())

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.PreviewRows != 5 || got.TextColumn != domain.DefaultTextColumn {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "text_colum: Review\n",
		"bad filename": "export_filename: ../out.csv\n",
		"not yaml":     "preview_rows: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := NewFileStore(path, domain.DefaultSettings()).Load(context.Background())
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
