package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

const maxCellRunes = 60

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printPreview(w io.Writer, preview domain.Preview) error {
	if len(preview.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No rows with text to analyze.")
		return err
	}

	shown := domain.ResultSet{Results: preview.Rows}
	tw := newTable(w)
	fmt.Fprintln(tw, strings.Join(shown.Columns(), "\t"))
	for _, record := range shown.Records() {
		cells := make([]string, len(record))
		for i, cell := range record {
			cells[i] = truncate(cell)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if preview.Notice != "" {
		_, err := fmt.Fprintln(w, preview.Notice)
		return err
	}
	return nil
}

func printHistory(w io.Writer, entries []domain.HistoryEntry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "TIME\tSENTIMENT\tCONFIDENCE\tTEXT")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			entry.Time.Local().Format(time.DateTime),
			entry.Prediction,
			entry.ConfidencePercent,
			truncate(entry.Text),
		)
	}
	return tw.Flush()
}

func printDashboard(w io.Writer, d *domain.Dashboard) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total reviews\t%d\n", d.Stats.TotalReviews)
	for _, point := range d.Sentiments {
		fmt.Fprintf(tw, "%s\t%.0f\t%.1f%%\n", point.Name, point.Value, point.Percent)
	}
	for _, point := range d.Confidence {
		fmt.Fprintf(tw, "Average confidence\t%.1f%%\n", point.Percent)
	}
	fmt.Fprintf(tw, "Most common\t%s\n", d.Insights.MostCommonSentiment)
	fmt.Fprintf(tw, "Confidence level\t%s\n", d.Insights.ConfidenceLevel)
	fmt.Fprintf(tw, "Analysis quality\t%s\n", d.Insights.AnalysisQuality)
	return tw.Flush()
}

// truncate shortens s to maxCellRunes and flattens newlines so table rows stay aligned.
func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxCellRunes {
		return s
	}
	return string(runes[:maxCellRunes-3]) + "..."
}
