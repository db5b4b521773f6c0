package search

import (
	"fmt"

	"github.com/kamusis/taskcap-cli/internal/search/index"
)

// Similar queries one corpus and shapes the hits as results, best first.
func Similar(c *index.Corpus, query string, limit int) ([]Result, error) {
	hits, err := c.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("cannot query %s: %w", c.Name(), err)
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, Result{
			Corpus:   c.Name(),
			ID:       h.ID,
			Content:  h.Content,
			Score:    h.Score,
			Metadata: h.Metadata,
		})
	}
	return out, nil
}

// Strings returns the string values of metadata[key], accepting a []string, a []any
// of strings (as decoded from JSON) or a single string.
func Strings(metadata map[string]any, key string) []string {
	switch v := metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// String returns metadata[key] when it is a string.
func String(metadata map[string]any, key string) string {
	s, _ := metadata[key].(string)
	return s
}
