package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProcessingRequest is the body of POST /api/process.
type ProcessingRequest struct {
	Task           Task    `json:"task"`
	Library        Library `json:"library"`
	Text           string  `json:"text"`
	ComparisonText string  `json:"comparison_text,omitempty"`
}

// ResultPayload is the task-shaped result object returned by the backend.
type ResultPayload map[string]any

type ProcessingResult struct {
	Result        ResultPayload         `json:"result"`
	Visualization *VisualizationPayload `json:"visualization,omitempty"`
}

type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type SimilaritySummary struct {
	SimilarityScore  float64 `json:"similarity_score"`
	Text1UniqueCount int     `json:"text1_unique_count"`
	Text2UniqueCount int     `json:"text2_unique_count"`
	CommonTermsCount int     `json:"common_terms_count"`
}

// VisualizationPayload holds either a series of named points (sentiment,
// keywords) or a similarity summary, depending on the JSON shape received.
type VisualizationPayload struct {
	Points     []ChartPoint
	Similarity *SimilaritySummary
}

func (v *VisualizationPayload) IsEmpty() bool {
	return v == nil || (len(v.Points) == 0 && v.Similarity == nil)
}

func (v *VisualizationPayload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = VisualizationPayload{}
		return nil
	}
	switch trimmed[0] {
	case '[':
		var points []ChartPoint
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return fmt.Errorf("decode visualization points: %w", err)
		}
		*v = VisualizationPayload{Points: points}
	case '{':
		var summary SimilaritySummary
		if err := json.Unmarshal(trimmed, &summary); err != nil {
			return fmt.Errorf("decode similarity summary: %w", err)
		}
		*v = VisualizationPayload{Similarity: &summary}
	default:
		return fmt.Errorf("decode visualization: unexpected json %q", trimmed[0])
	}
	return nil
}

func (v VisualizationPayload) MarshalJSON() ([]byte, error) {
	if v.Similarity != nil {
		return json.Marshal(v.Similarity)
	}
	if v.Points == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.Points)
}
