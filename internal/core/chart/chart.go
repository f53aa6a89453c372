// Package chart maps visualization payloads to chart configurations and
// manages the single chart drawn on a surface.
package chart

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/core/render"
)

const topKeywords = 10

type TooltipFormat string

const (
	TooltipValue   TooltipFormat = "value"
	TooltipPercent TooltipFormat = "percent"
)

type Series struct {
	Label       string    `json:"label,omitempty"`
	Data        []float64 `json:"data"`
	Background  []string  `json:"background_color"`
	Border      []string  `json:"border_color,omitempty"`
	BorderWidth int       `json:"border_width"`
}

// Config is a renderer-neutral chart description.
type Config struct {
	Kind      domain.ChartKind `json:"type"`
	Title     string           `json:"title"`
	Labels    []string         `json:"labels"`
	Series    []Series         `json:"datasets"`
	IndexAxis string           `json:"index_axis,omitempty"`
	Legend    string           `json:"legend,omitempty"`
	Tooltip   TooltipFormat    `json:"tooltip"`
}

// TooltipText renders the tooltip for the i-th point of the first series.
func (c Config) TooltipText(i int) string {
	if len(c.Series) == 0 || i < 0 || i >= len(c.Series[0].Data) || i >= len(c.Labels) {
		return ""
	}
	v := c.Series[0].Data[i]
	if c.Tooltip == TooltipPercent {
		return fmt.Sprintf("%s: %s", c.Labels[i], Percent(v))
	}
	return fmt.Sprintf("%s: %s", c.Labels[i], render.Decimal(v, 4))
}

// Percent renders a proportion as a one-decimal percentage.
func Percent(v float64) string {
	return render.Percent(v, 1)
}

var (
	sentimentFill   = []string{"rgba(40, 167, 69, 0.7)", "rgba(173, 181, 189, 0.7)", "rgba(239, 68, 68, 0.7)"}
	sentimentBorder = []string{"rgba(40, 167, 69, 1)", "rgba(173, 181, 189, 1)", "rgba(239, 68, 68, 1)"}
	keywordFill     = "rgba(98, 69, 255, 0.7)"
	keywordBorder   = "rgba(98, 69, 255, 1)"
	similarityFill  = []string{"rgba(59, 130, 246, 0.7)", "rgba(16, 185, 129, 0.7)", "rgba(245, 158, 11, 0.7)"}
)

// Map returns the chart for a task's visualization payload. The second return
// is false when the task has no chart or the payload is empty.
func Map(task string, payload *domain.VisualizationPayload) (Config, bool) {
	if payload.IsEmpty() {
		return Config{}, false
	}
	switch domain.Task(task) {
	case domain.TaskSentiment:
		return sentiment(payload.Points)
	case domain.TaskKeywordExtraction:
		return keywords(payload.Points)
	case domain.TaskSimilarity:
		return similarity(payload.Similarity)
	default:
		return Config{}, false
	}
}

func sentiment(points []domain.ChartPoint) (Config, bool) {
	if len(points) == 0 {
		return Config{}, false
	}
	return Config{
		Kind:   domain.ChartPie,
		Title:  "Sentiment Distribution",
		Labels: names(points),
		Series: []Series{{
			Data:        values(points),
			Background:  cycle(sentimentFill, len(points)),
			Border:      cycle(sentimentBorder, len(points)),
			BorderWidth: 1,
		}},
		Legend:  "right",
		Tooltip: TooltipPercent,
	}, true
}

func keywords(points []domain.ChartPoint) (Config, bool) {
	if len(points) == 0 {
		return Config{}, false
	}
	ranked := slices.Clone(points)
	slices.SortStableFunc(ranked, func(a, b domain.ChartPoint) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if len(ranked) > topKeywords {
		ranked = ranked[:topKeywords]
	}
	return Config{
		Kind:   domain.ChartBar,
		Title:  "Top Keywords",
		Labels: names(ranked),
		Series: []Series{{
			Label:       "Relevance Score",
			Data:        values(ranked),
			Background:  []string{keywordFill},
			Border:      []string{keywordBorder},
			BorderWidth: 1,
		}},
		IndexAxis: "y",
		Tooltip:   TooltipValue,
	}, true
}

func similarity(s *domain.SimilaritySummary) (Config, bool) {
	if s == nil {
		return Config{}, false
	}
	return Config{
		Kind:   domain.ChartPie,
		Title:  "Similarity Score: " + Percent(s.SimilarityScore),
		Labels: []string{"Unique to Text 1", "Common Terms", "Unique to Text 2"},
		Series: []Series{{
			Data:        []float64{float64(s.Text1UniqueCount), float64(s.CommonTermsCount), float64(s.Text2UniqueCount)},
			Background:  similarityFill,
			BorderWidth: 1,
		}},
		Legend:  "right",
		Tooltip: TooltipValue,
	}, true
}

func names(points []domain.ChartPoint) []string {
	return lo.Map(points, func(p domain.ChartPoint, _ int) string { return p.Name })
}

func values(points []domain.ChartPoint) []float64 {
	return lo.Map(points, func(p domain.ChartPoint, _ int) float64 { return p.Value })
}

func cycle(palette []string, n int) []string {
	return lo.Times(n, func(i int) string { return palette[i%len(palette)] })
}
