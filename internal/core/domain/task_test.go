package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupTaskKnownAndUnknown(t *testing.T) {
	req := require.New(t)

	info, ok := LookupTask("text_similarity")
	req.True(ok)
	req.Equal("Text Similarity", info.Label)
	req.True(info.RequiresComparison)

	info, ok = LookupTask("pos_tagging")
	req.True(ok)
	req.Equal("Part-of-Speech Tagging", info.Label)
	req.False(info.RequiresComparison)

	_, ok = LookupTask("word_cloud")
	req.False(ok)
}

func TestTasksReturnsAllTenInDisplayOrder(t *testing.T) {
	req := require.New(t)

	tasks := Tasks()
	req.Len(tasks, 10)
	req.Equal(TaskTokenization, tasks[0].Task)
	req.Equal(TaskLanguageDetection, tasks[9].Task)

	tasks[0].Label = "mutated"
	again, _ := LookupTask("tokenization")
	req.Equal("Tokenization", again.Label)
}

func TestParseLibraryDefaultsToNLTK(t *testing.T) {
	req := require.New(t)
	req.Equal(LibrarySpaCy, ParseLibrary(" SpaCy "))
	req.Equal(LibraryNLTK, ParseLibrary("nltk"))
	req.Equal(LibraryNLTK, ParseLibrary(""))
	req.Equal(LibraryNLTK, ParseLibrary("stanza"))
}

func TestVisualizationPayloadDecodesBothShapes(t *testing.T) {
	req := require.New(t)

	var series VisualizationPayload
	req.NoError(json.Unmarshal([]byte(`[{"name":"Positive","value":0.4},{"name":"Negative","value":0.1}]`), &series))
	req.Len(series.Points, 2)
	req.Nil(series.Similarity)

	var summary VisualizationPayload
	req.NoError(json.Unmarshal([]byte(`{"similarity_score":0.5,"text1_unique_count":3,"text2_unique_count":4,"common_terms_count":2}`), &summary))
	req.NotNil(summary.Similarity)
	req.Equal(2, summary.Similarity.CommonTermsCount)

	var empty *VisualizationPayload
	req.True(empty.IsEmpty())
	req.True((&VisualizationPayload{}).IsEmpty())

	var bad VisualizationPayload
	req.Error(json.Unmarshal([]byte(`"pie"`), &bad))
}

func TestVisualizationPayloadEncodesOriginalShape(t *testing.T) {
	req := require.New(t)

	raw, err := json.Marshal(VisualizationPayload{Similarity: &SimilaritySummary{SimilarityScore: 0.25}})
	req.NoError(err)
	req.Contains(string(raw), `"similarity_score":0.25`)

	raw, err = json.Marshal(VisualizationPayload{})
	req.NoError(err)
	req.Equal("[]", string(raw))
}

func TestUserMessageByErrorKind(t *testing.T) {
	req := require.New(t)

	validation := WrapError(ErrInvalidInput, "build request", &ValidationError{Field: "text", Message: "Text input cannot be empty"})
	req.True(IsKind(validation, ErrInvalidInput))
	req.Equal("Text input cannot be empty", UserMessage(validation, "processing your text"))

	backend := WrapError(ErrBackend, "nlp process", &BackendError{Operation: "process", Message: "Unsupported task"})
	req.True(errors.Is(backend, ErrBackend))
	req.Equal("Unsupported task", UserMessage(backend, "processing your text"))

	transport := WrapError(ErrTemporary, "nlp process", errors.New("connection refused"))
	req.Equal("An error occurred while processing your text.", UserMessage(transport, "processing your text"))
}
