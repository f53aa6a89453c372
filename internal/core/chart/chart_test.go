package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/linguista/internal/core/domain"
)

func TestMapKeywordsTopTenDescending(t *testing.T) {
	req := require.New(t)
	payload := &domain.VisualizationPayload{Points: []domain.ChartPoint{
		{Name: "a", Value: 0.2}, {Name: "b", Value: 0.9}, {Name: "c", Value: 0.1},
		{Name: "d", Value: 0.5}, {Name: "e", Value: 0.3}, {Name: "f", Value: 0.05},
		{Name: "g", Value: 0.6}, {Name: "h", Value: 0.7}, {Name: "i", Value: 0.4},
		{Name: "j", Value: 0.15}, {Name: "k", Value: 0.8}, {Name: "l", Value: 0.01},
		{Name: "m", Value: 0.25},
	}}

	cfg, ok := Map("keyword_extraction", payload)
	req.True(ok)
	req.Equal(domain.ChartBar, cfg.Kind)
	req.Equal("y", cfg.IndexAxis)
	req.Equal("Top Keywords", cfg.Title)
	req.Len(cfg.Labels, 10)
	req.Len(cfg.Series[0].Data, 10)
	req.Equal("b", cfg.Labels[0])
	req.Equal("Relevance Score", cfg.Series[0].Label)
	for i := 1; i < len(cfg.Series[0].Data); i++ {
		req.GreaterOrEqual(cfg.Series[0].Data[i-1], cfg.Series[0].Data[i])
	}
	req.Equal("a", payload.Points[0].Name)
}

func TestMapKeywordsKeepsOrderOfTies(t *testing.T) {
	cfg, ok := Map("keyword_extraction", &domain.VisualizationPayload{Points: []domain.ChartPoint{
		{Name: "x", Value: 0.5}, {Name: "y", Value: 0.5}, {Name: "z", Value: 0.9},
	}})
	require.True(t, ok)
	require.Equal(t, []string{"z", "x", "y"}, cfg.Labels)
}

func TestMapSentimentPie(t *testing.T) {
	req := require.New(t)
	cfg, ok := Map("sentiment_analysis", &domain.VisualizationPayload{Points: []domain.ChartPoint{
		{Name: "Positive", Value: 0.4}, {Name: "Neutral", Value: 0.5}, {Name: "Negative", Value: 0.1},
	}})
	req.True(ok)
	req.Equal(domain.ChartPie, cfg.Kind)
	req.Equal([]string{"Positive", "Neutral", "Negative"}, cfg.Labels)
	req.Equal(TooltipPercent, cfg.Tooltip)
	req.Equal("Positive: 40.0%", cfg.TooltipText(0))
	req.Equal("rgba(40, 167, 69, 0.7)", cfg.Series[0].Background[0])
	req.Equal("", cfg.TooltipText(7))
}

func TestMapSimilarityPie(t *testing.T) {
	req := require.New(t)
	cfg, ok := Map("text_similarity", &domain.VisualizationPayload{Similarity: &domain.SimilaritySummary{
		SimilarityScore: 0.873, Text1UniqueCount: 4, CommonTermsCount: 7, Text2UniqueCount: 2,
	}})
	req.True(ok)
	req.Equal("Similarity Score: 87.3%", cfg.Title)
	req.Equal([]string{"Unique to Text 1", "Common Terms", "Unique to Text 2"}, cfg.Labels)
	req.Equal([]float64{4, 7, 2}, cfg.Series[0].Data)
}

func TestMapNoChart(t *testing.T) {
	points := &domain.VisualizationPayload{Points: []domain.ChartPoint{{Name: "a", Value: 1}}}
	for _, task := range []string{"tokenization", "stopword_removal", "lemmatization", "pos_tagging", "ner", "text_summarization", "language_detection", "unknown"} {
		_, ok := Map(task, points)
		require.Falsef(t, ok, "task %s", task)
	}

	_, ok := Map("sentiment_analysis", nil)
	require.False(t, ok)
	_, ok = Map("keyword_extraction", &domain.VisualizationPayload{})
	require.False(t, ok)
	_, ok = Map("text_similarity", points)
	require.False(t, ok)
}

type fakeInstance struct {
	events *[]string
}

func (f *fakeInstance) Release() error {
	*f.events = append(*f.events, "release")
	return nil
}

type fakeCanvas struct {
	events []string
}

func (c *fakeCanvas) Draw(cfg Config) (Instance, error) {
	c.events = append(c.events, "draw "+cfg.Title)
	return &fakeInstance{events: &c.events}, nil
}

func TestSurfaceReleasesBeforeDrawing(t *testing.T) {
	req := require.New(t)
	canvas := &fakeCanvas{}
	s := NewSurface(canvas)

	req.NoError(s.Show(Config{Title: "one"}))
	req.NoError(s.Show(Config{Title: "two"}))
	req.True(s.Active())
	req.NoError(s.Clear())
	req.False(s.Active())
	req.NoError(s.Clear())

	req.Equal([]string{"draw one", "release", "draw two", "release"}, canvas.events)
}

type failingCanvas struct{}

func (failingCanvas) Draw(Config) (Instance, error) { return nil, errors.New("no context") }

func TestSurfaceDrawErrorLeavesSurfaceEmpty(t *testing.T) {
	s := NewSurface(failingCanvas{})
	err := s.Show(Config{})
	require.Error(t, err)
	require.False(t, s.Active())
}

func TestTextCanvasDrawsBars(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	cfg, _ := Map("sentiment_analysis", &domain.VisualizationPayload{Points: []domain.ChartPoint{
		{Name: "Positive", Value: 0.5}, {Name: "Negative", Value: 0.25},
	}})

	inst, err := TextCanvas{Out: &out, Width: 8}.Draw(cfg)
	req.NoError(err)
	req.NoError(inst.Release())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	req.Equal("Sentiment Distribution", lines[0])
	req.Equal("Positive | ######## 50.0%", lines[1])
	req.Equal("Negative | #### 25.0%", lines[2])
}
