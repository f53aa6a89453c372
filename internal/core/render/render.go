// Package render maps a task identifier and a backend result payload to a
// structured view model. Rendering is pure: it performs no I/O and never
// modifies the payload it is given.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"github.com/kirillkom/linguista/internal/core/domain"
)

type SectionKind string

const (
	KindTokens SectionKind = "tokens"
	KindPairs  SectionKind = "pairs"
	KindText   SectionKind = "text"
)

type Stat struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Section struct {
	Key   string      `json:"key"`
	Title string      `json:"title"`
	Kind  SectionKind `json:"kind"`
	Items []string    `json:"items,omitempty"`
	Pairs []Pair      `json:"pairs,omitempty"`
	Text  string      `json:"text,omitempty"`
}

// View is the rendered form of one processing result. Known is false when the
// task is not in the registry, in which case Dump holds the indented payload.
type View struct {
	Task     string    `json:"task"`
	Label    string    `json:"label"`
	Known    bool      `json:"known"`
	Stats    []Stat    `json:"stats,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Dump     string    `json:"dump,omitempty"`
}

// Section returns the section with the given key.
func (v View) Section(key string) (Section, bool) {
	return lo.Find(v.Sections, func(s Section) bool { return s.Key == key })
}

// Stat returns the stat with the given key.
func (v View) Stat(key string) (Stat, bool) {
	return lo.Find(v.Stats, func(s Stat) bool { return s.Key == key })
}

type renderFunc func(p domain.ResultPayload, v *View)

var renderers = map[domain.Task]renderFunc{
	domain.TaskTokenization:      renderTokenization,
	domain.TaskStopwordRemoval:   renderStopwords,
	domain.TaskLemmatization:     renderLemmatization,
	domain.TaskPOSTagging:        renderPOSTags,
	domain.TaskNER:               renderEntities,
	domain.TaskSentiment:         renderSentiment,
	domain.TaskSummarization:     renderSummary,
	domain.TaskKeywordExtraction: renderKeywords,
	domain.TaskSimilarity:        renderSimilarity,
	domain.TaskLanguageDetection: renderLanguage,
}

// Render builds the view model for a result of the given task.
func Render(task string, payload domain.ResultPayload) View {
	info, known := domain.LookupTask(task)
	fn, ok := renderers[info.Task]
	if !known || !ok {
		return View{Task: task, Label: task, Dump: dump(payload)}
	}

	v := View{Task: task, Label: info.Label, Known: true}
	fn(payload, &v)
	return v
}

func dump(payload domain.ResultPayload) string {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(payload))
	}
	return string(raw)
}

func tokens(key, title string, items []string) Section {
	if items == nil {
		items = []string{}
	}
	return Section{Key: key, Title: title, Kind: KindTokens, Items: items}
}

func pairs(key, title string, items []Pair) Section {
	if items == nil {
		items = []Pair{}
	}
	return Section{Key: key, Title: title, Kind: KindPairs, Pairs: items}
}

func renderTokenization(p domain.ResultPayload, v *View) {
	v.Stats = []Stat{
		{Key: "word_count", Label: "Word Count", Value: count(p, "word_count", "words")},
		{Key: "sentence_count", Label: "Sentence Count", Value: count(p, "sentence_count", "sentences")},
	}
	v.Sections = []Section{
		tokens("words", "Words", strs(p, "words")),
		tokens("sentences", "Sentences", strs(p, "sentences")),
	}
}

func renderStopwords(p domain.ResultPayload, v *View) {
	v.Stats = []Stat{
		{Key: "original_count", Label: "Original Word Count", Value: count(p, "original_count", "original_words")},
		{Key: "filtered_count", Label: "After Removal", Value: count(p, "filtered_count", "filtered_words")},
	}
	v.Sections = []Section{
		tokens("filtered_words", "Filtered Words", strs(p, "filtered_words")),
		tokens("removed_words", "Removed Words", strs(p, "removed_words")),
	}
}

// renderLemmatization lists changed words in the order they appear in the
// original text; lemma_dict entries not found there follow in key order.
func renderLemmatization(p domain.ResultPayload, v *View) {
	lemmas := object(p, "lemma_dict")
	changes := make([]Pair, 0, len(lemmas))
	seen := make(map[string]struct{}, len(lemmas))
	add := func(original string) {
		if _, dup := seen[original]; dup {
			return
		}
		lemma, ok := lemmas[original].(string)
		if !ok || lemma == original {
			return
		}
		seen[original] = struct{}{}
		changes = append(changes, Pair{Key: original, Value: lemma})
	}

	for _, word := range strs(p, "original_words") {
		add(word)
	}
	rest := lo.Keys(lemmas)
	sort.Strings(rest)
	for _, word := range rest {
		add(word)
	}

	v.Sections = []Section{
		tokens("lemmatized_words", "Lemmatized Words", strs(p, "lemmatized_words")),
		pairs("changes", "Changes", changes),
	}
}

func renderPOSTags(p domain.ResultPayload, v *View) {
	tagged := lo.FilterMap(list(p, "pos_tags"), func(item any, _ int) (Pair, bool) {
		tuple, ok := item.([]any)
		if !ok || len(tuple) < 2 {
			return Pair{}, false
		}
		word, okWord := tuple[0].(string)
		tag, okTag := tuple[1].(string)
		return Pair{Key: word, Value: tag}, okWord && okTag
	})
	v.Sections = []Section{pairs("pos_tags", "Tagged Words", tagged)}
}

func renderEntities(p domain.ResultPayload, v *View) {
	entities := lo.FilterMap(list(p, "entities"), func(item any, _ int) (Pair, bool) {
		entity, ok := item.(map[string]any)
		if !ok {
			return Pair{}, false
		}
		name, okText := entity["text"].(string)
		kind, okType := entity["type"].(string)
		return Pair{Key: name, Value: kind}, okText && okType
	})
	v.Sections = []Section{pairs("entities", "Recognized Entities", entities)}
}

var scoreOrder = map[string]int{"pos": 0, "neu": 1, "neg": 2}

func renderSentiment(p domain.ResultPayload, v *View) {
	scores := object(p, "scores")
	compound := ""
	if c, ok := scores["compound"].(float64); ok {
		compound = Decimal(c, 3)
	}
	v.Stats = []Stat{
		{Key: "sentiment", Label: "Overall Sentiment", Value: text(p, "sentiment")},
		{Key: "compound", Label: "Compound Score", Value: compound},
	}

	keys := lo.Filter(lo.Keys(scores), func(k string, _ int) bool {
		_, numeric := scores[k].(float64)
		return k != "compound" && numeric
	})
	sort.Slice(keys, func(i, j int) bool {
		ri, okI := scoreOrder[keys[i]]
		rj, okJ := scoreOrder[keys[j]]
		switch {
		case okI && okJ:
			return ri < rj
		case okI != okJ:
			return okI
		default:
			return keys[i] < keys[j]
		}
	})
	breakdown := lo.Map(keys, func(k string, _ int) Pair {
		return Pair{Key: k, Value: Decimal(scores[k].(float64), 4)}
	})
	v.Sections = []Section{pairs("scores", "Detailed Scores", breakdown)}
}

func renderSummary(p domain.ResultPayload, v *View) {
	original, _ := number(p, "original_length")
	summary, _ := number(p, "summary_length")
	ratio, ok := number(p, "compression_ratio")
	if !ok && original > 0 {
		ratio = summary / original
	}
	v.Stats = []Stat{
		{Key: "original_length", Label: "Original Length", Value: count(p, "original_length", "")},
		{Key: "summary_length", Label: "Summary Length", Value: count(p, "summary_length", "")},
		{Key: "compression_ratio", Label: "Compression Ratio", Value: Percent(ratio, 1)},
	}
	v.Sections = []Section{{Key: "summary", Title: "Summary", Kind: KindText, Text: text(p, "summary")}}
}

func renderKeywords(p domain.ResultPayload, v *View) {
	keywords := lo.FilterMap(list(p, "keyword_list"), func(item any, _ int) (Pair, bool) {
		kw, ok := item.(map[string]any)
		if !ok {
			return Pair{}, false
		}
		word, okWord := kw["word"].(string)
		score, okScore := kw["score"].(float64)
		return Pair{Key: word, Value: Decimal(score, 4)}, okWord && okScore
	})
	v.Sections = []Section{pairs("keywords", "Top Keywords", keywords)}
}

func renderSimilarity(p domain.ResultPayload, v *View) {
	score, _ := number(p, "similarity_score")
	v.Stats = []Stat{{Key: "similarity_score", Label: "Similarity Score", Value: Percent(score, 1)}}
	v.Sections = []Section{
		tokens("common_terms", "Common Terms", strs(p, "common_terms")),
		tokens("text1_unique", "Unique to Text 1", strs(p, "text1_unique")),
		tokens("text2_unique", "Unique to Text 2", strs(p, "text2_unique")),
	}
}

func renderLanguage(p domain.ResultPayload, v *View) {
	code := text(p, "language_code")
	name := text(p, "language_name")
	if name == "" {
		name = languageName(code)
	}
	v.Stats = []Stat{
		{Key: "language_name", Label: "Detected Language", Value: name},
		{Key: "language_code", Label: "Language Code", Value: code},
	}

	probabilities := lo.FilterMap(list(p, "probabilities"), func(item any, _ int) (Pair, bool) {
		entry, ok := item.(map[string]any)
		if !ok {
			return Pair{}, false
		}
		lang, okLang := entry["lang"].(string)
		prob, okProb := entry["prob"].(float64)
		return Pair{Key: lang, Value: Percent(prob, 2)}, okLang && okProb
	})
	if len(probabilities) > 0 {
		v.Sections = []Section{pairs("probabilities", "Confidence Scores", probabilities)}
	}
}

// languageName resolves an ISO 639-1 code to an English language name.
func languageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	for lang, name := range whatlanggo.Langs {
		if lang.Iso6391() == code {
			return name
		}
	}
	return code
}
