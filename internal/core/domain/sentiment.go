package domain

import (
	"strconv"
	"time"
)

const MaxAnalyzeTextLength = 5000

// Prediction is the classifier response for one text.
type Prediction struct {
	Text       string  `json:"text,omitempty"`
	Label      string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp,omitempty"`
}

type Analysis struct {
	Prediction
	ConfidencePercent string `json:"confidence_percent"`
	ConfidenceLabel   string `json:"confidence_label"`
}

func NewAnalysis(p Prediction) Analysis {
	return Analysis{
		Prediction:        p,
		ConfidencePercent: FormatConfidence(p.Confidence),
		ConfidenceLabel:   ConfidenceLabel(p.Confidence),
	}
}

func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence > 0.85:
		return "Very confident"
	case confidence > 0.65:
		return "Moderately confident"
	default:
		return "Less confident"
	}
}

type HistoryRecord struct {
	Text       string  `json:"text"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

type HistoryEntry struct {
	HistoryRecord
	ConfidencePercent string    `json:"confidence_percent"`
	Time              time.Time `json:"time"`
}

func NewHistoryEntry(r HistoryRecord) HistoryEntry {
	return HistoryEntry{
		HistoryRecord:     r,
		ConfidencePercent: FormatConfidence(r.Confidence),
		Time:              time.UnixMilli(r.Timestamp).UTC(),
	}
}

type Stats struct {
	TotalReviews      int     `json:"totalReviews"`
	Positive          int     `json:"positive"`
	Negative          int     `json:"negative"`
	Neutral           int     `json:"neutral"`
	AverageConfidence float64 `json:"averageConfidence"`
}

type ChartPoint struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

type Insights struct {
	MostCommonSentiment string `json:"most_common_sentiment"`
	ConfidenceLevel     string `json:"confidence_level"`
	AnalysisQuality     string `json:"analysis_quality"`
}

type Dashboard struct {
	Stats       Stats        `json:"stats"`
	Sentiments  []ChartPoint `json:"sentiments"`
	Confidence  []ChartPoint `json:"confidence"`
	Insights    Insights     `json:"insights"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// BuildDashboard derives chart series and summary insights from aggregate stats.
func BuildDashboard(stats Stats, now time.Time) Dashboard {
	share := func(n int) float64 {
		if stats.TotalReviews <= 0 {
			return 0
		}
		return roundTenth(float64(n) / float64(stats.TotalReviews) * 100)
	}

	avgPercent := roundTenth(stats.AverageConfidence * 100)
	return Dashboard{
		Stats: stats,
		Sentiments: []ChartPoint{
			{Name: "Positive", Value: float64(stats.Positive), Percent: share(stats.Positive)},
			{Name: "Negative", Value: float64(stats.Negative), Percent: share(stats.Negative)},
			{Name: "Neutral", Value: float64(stats.Neutral), Percent: share(stats.Neutral)},
		},
		Confidence: []ChartPoint{
			{Name: "Confidence %", Value: avgPercent, Percent: avgPercent},
		},
		Insights: Insights{
			MostCommonSentiment: mostCommonSentiment(stats),
			ConfidenceLevel:     confidenceLevel(stats.AverageConfidence),
			AnalysisQuality:     analysisQuality(stats.TotalReviews),
		},
		GeneratedAt: now.UTC(),
	}
}

func mostCommonSentiment(s Stats) string {
	switch {
	case s.Positive >= s.Negative && s.Positive >= s.Neutral:
		return "Positive"
	case s.Negative >= s.Neutral:
		return "Negative"
	default:
		return "Neutral"
	}
}

func confidenceLevel(avg float64) string {
	switch {
	case avg >= 0.8:
		return "High"
	case avg >= 0.6:
		return "Medium"
	default:
		return "Low"
	}
}

func analysisQuality(total int) string {
	switch {
	case total >= 50:
		return "Comprehensive"
	case total >= 20:
		return "Good"
	case total >= 5:
		return "Moderate"
	default:
		return "Limited"
	}
}

func roundTenth(v float64) float64 {
	out, err := strconv.ParseFloat(formatTenth(v), 64)
	if err != nil {
		return v
	}
	return out
}
