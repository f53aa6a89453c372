package render

import (
	"strconv"

	"github.com/samber/lo"

	"github.com/kirillkom/linguista/internal/core/domain"
)

// Field accessors over a decoded JSON object. A field with the wrong type is
// reported as absent so that rendering never fails on a malformed payload.

func number(p domain.ResultPayload, key string) (float64, bool) {
	v, ok := p[key].(float64)
	return v, ok
}

func text(p domain.ResultPayload, key string) string {
	v, _ := p[key].(string)
	return v
}

func list(p domain.ResultPayload, key string) []any {
	v, _ := p[key].([]any)
	return v
}

func object(p domain.ResultPayload, key string) map[string]any {
	v, _ := p[key].(map[string]any)
	return v
}

func strs(p domain.ResultPayload, key string) []string {
	return lo.FilterMap(list(p, key), func(item any, _ int) (string, bool) {
		s, ok := item.(string)
		return s, ok
	})
}

func count(p domain.ResultPayload, key, fallbackList string) string {
	if v, ok := number(p, key); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.Itoa(len(list(p, fallbackList)))
}
