package domain

type SampleText struct {
	Text           string `json:"text"`
	ComparisonText string `json:"comparison_text,omitempty"`
}

type Explanation struct {
	Title string         `json:"title"`
	What  string         `json:"what"`
	Why   string         `json:"why"`
	How   ExplanationHow `json:"how"`
}

type ExplanationHow struct {
	NLTK  string `json:"nltk"`
	SpaCy string `json:"spacy"`
}

type CodeSample struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// CodeSampleTypes lists the code sample keys the backend serves.
var CodeSampleTypes = []string{"nltk-tokenize", "spacy-ner", "sklearn-vectorizer"}

type LearningLevel string

const (
	LevelBeginner     LearningLevel = "beginner"
	LevelIntermediate LearningLevel = "intermediate"
	LevelAdvanced     LearningLevel = "advanced"
)

func ParseLearningLevel(raw string) (LearningLevel, bool) {
	switch LearningLevel(raw) {
	case "":
		return LevelBeginner, true
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return LearningLevel(raw), true
	default:
		return "", false
	}
}

type LearningContent struct {
	Topic    string        `json:"topic"`
	Level    LearningLevel `json:"level"`
	Markdown string        `json:"markdown"`
	HTML     string        `json:"html,omitempty"`
}
