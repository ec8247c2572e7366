package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

type bulkOptions struct {
	out    string
	format string
	column string
}

func newBulkCmd(svc Services, asJSON *bool) *cobra.Command {
	var opts bulkOptions
	cmd := &cobra.Command{
		Use:   "bulk FILE",
		Short: "Classify every row of a CSV file",
		Long: `Reads a CSV file with a header row, classifies the text column of every
non-empty row one at a time and prints a preview of the results.

Rows the classifier rejects are kept with sentiment "Error" and confidence "0%".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, svc, opts, args[0], *asJSON)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the full result set to this path")
	cmd.Flags().StringVar(&opts.format, "format", string(domain.ExportCSV), "export format: csv or xlsx")
	cmd.Flags().StringVar(&opts.column, "column", "", "column holding the review text (default from settings)")
	return cmd
}

func runBulk(cmd *cobra.Command, svc Services, opts bulkOptions, path string, asJSON bool) error {
	format := domain.ExportFormat(strings.ToLower(strings.TrimSpace(opts.format)))
	if format != domain.ExportCSV && format != domain.ExportXLSX {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	session := svc.NewSession(opts.column)
	if !session.Accept(domain.UploadedFile{Name: filepath.Base(path), Size: int64(len(content)), Content: content}) {
		return domain.WrapError(domain.ErrUnsupportedFile, "bulk", fmt.Errorf("expected a %s file, got %q", domain.TabularExtension, path))
	}

	errOut := cmd.ErrOrStderr()
	set, runErr := session.Process(cmd.Context(), func(p domain.Progress) {
		fmt.Fprintf(errOut, "\rProcessing %d/%d (%.0f%%)", p.Completed, p.Total, p.Percent())
	})
	fmt.Fprintln(errOut)
	if runErr != nil && !errors.Is(runErr, cmd.Context().Err()) {
		return fmt.Errorf("bulk: %w", runErr)
	}

	preview := session.Preview()
	if asJSON {
		if err := printJSON(cmd.OutOrStdout(), preview); err != nil {
			return err
		}
	} else {
		if err := printPreview(cmd.OutOrStdout(), preview); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows classified, %d failed\n", set.Len(), set.Failed())
	}

	if opts.out != "" {
		if err := writeExport(session, opts.out, format); err != nil {
			return err
		}
		cmd.PrintErrf("Saved %d results to %s\n", set.Len(), opts.out)
	}
	return runErr
}

type resultExporter interface {
	Export(w io.Writer, format domain.ExportFormat) (string, error)
}

func writeExport(session resultExporter, path string, format domain.ExportFormat) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	_, err = session.Export(f, format)
	return err
}
