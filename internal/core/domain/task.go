package domain

import "strings"

type Task string

const (
	TaskTokenization      Task = "tokenization"
	TaskStopwordRemoval   Task = "stopword_removal"
	TaskLemmatization     Task = "lemmatization"
	TaskPOSTagging        Task = "pos_tagging"
	TaskNER               Task = "ner"
	TaskSentiment         Task = "sentiment_analysis"
	TaskSummarization     Task = "text_summarization"
	TaskKeywordExtraction Task = "keyword_extraction"
	TaskSimilarity        Task = "text_similarity"
	TaskLanguageDetection Task = "language_detection"
)

type ChartKind string

const (
	ChartNone ChartKind = ""
	ChartPie  ChartKind = "pie"
	ChartBar  ChartKind = "bar"
)

type TaskInfo struct {
	Task               Task      `json:"id"`
	Label              string    `json:"label"`
	RequiresComparison bool      `json:"requires_comparison"`
	Chart              ChartKind `json:"chart,omitempty"`
}

var taskRegistry = []TaskInfo{
	{Task: TaskTokenization, Label: "Tokenization"},
	{Task: TaskStopwordRemoval, Label: "Stopword Removal"},
	{Task: TaskLemmatization, Label: "Lemmatization"},
	{Task: TaskPOSTagging, Label: "Part-of-Speech Tagging"},
	{Task: TaskNER, Label: "Named Entity Recognition"},
	{Task: TaskSentiment, Label: "Sentiment Analysis", Chart: ChartPie},
	{Task: TaskSummarization, Label: "Text Summarization"},
	{Task: TaskKeywordExtraction, Label: "Keyword Extraction", Chart: ChartBar},
	{Task: TaskSimilarity, Label: "Text Similarity", RequiresComparison: true, Chart: ChartPie},
	{Task: TaskLanguageDetection, Label: "Language Detection"},
}

// Tasks returns every supported task in display order.
func Tasks() []TaskInfo {
	out := make([]TaskInfo, len(taskRegistry))
	copy(out, taskRegistry)
	return out
}

// LookupTask reports the registry entry for id. Unknown ids return false.
func LookupTask(id string) (TaskInfo, bool) {
	for _, info := range taskRegistry {
		if string(info.Task) == id {
			return info, true
		}
	}
	return TaskInfo{}, false
}

type Library string

const (
	LibraryNLTK  Library = "nltk"
	LibrarySpaCy Library = "spacy"
)

// ParseLibrary normalizes a library selector. Anything unrecognized falls back to nltk.
func ParseLibrary(raw string) Library {
	switch Library(strings.ToLower(strings.TrimSpace(raw))) {
	case LibrarySpaCy:
		return LibrarySpaCy
	default:
		return LibraryNLTK
	}
}
