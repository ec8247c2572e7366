package domain

import (
	"errors"
	"path/filepath"
	"strings"
)

const MaxPreviewRows = 100

// Settings is the process-wide console configuration that users can change at runtime.
type Settings struct {
	TextColumn     string `json:"text_column" yaml:"text_column"`
	PreviewRows    int    `json:"preview_rows" yaml:"preview_rows"`
	ExportFilename string `json:"export_filename" yaml:"export_filename"`
}

func DefaultSettings() Settings {
	return Settings{
		TextColumn:     DefaultTextColumn,
		PreviewRows:    DefaultPreviewRows,
		ExportFilename: DefaultExportFilename,
	}
}

// Normalize fills zero values with defaults.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	out := s
	out.TextColumn = strings.TrimSpace(out.TextColumn)
	if out.TextColumn == "" {
		out.TextColumn = def.TextColumn
	}
	if out.PreviewRows <= 0 {
		out.PreviewRows = def.PreviewRows
	}
	out.ExportFilename = strings.TrimSpace(out.ExportFilename)
	if out.ExportFilename == "" {
		out.ExportFilename = def.ExportFilename
	}
	return out
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.TextColumn) == "" {
		return WrapError(ErrInvalidInput, "validate settings", errors.New("text_column is required"))
	}
	if s.PreviewRows < 1 || s.PreviewRows > MaxPreviewRows {
		return WrapError(ErrInvalidInput, "validate settings", errors.New("preview_rows must be between 1 and 100"))
	}
	name := s.ExportFilename
	if name == "" || filepath.Base(name) != name || !IsTabularFile(name) {
		return WrapError(ErrInvalidInput, "validate settings", errors.New("export_filename must be a plain .csv file name"))
	}
	return nil
}

// ExportFilenameFor swaps the export extension for the requested format.
func (s Settings) ExportFilenameFor(format ExportFormat) string {
	name := s.ExportFilename
	if name == "" {
		name = DefaultExportFilename
	}
	if format == ExportXLSX {
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".xlsx"
	}
	return name
}
