package index

import (
	"fmt"
	"sort"
)

// Vocabulary is an ordered bijection between normalized tokens and vector positions.
// Positions follow the lexicographic order of the tokens.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// NewVocabulary builds a vocabulary from an already sorted, duplicate-free token list.
func NewVocabulary(sorted []string) (Vocabulary, error) {
	idx := make(map[string]int, len(sorted))
	for i, tok := range sorted {
		if i > 0 && sorted[i-1] >= tok {
			return Vocabulary{}, fmt.Errorf("vocabulary tokens not strictly sorted at %d (%q >= %q)", i, sorted[i-1], tok)
		}
		idx[tok] = i
	}
	out := make([]string, len(sorted))
	copy(out, sorted)
	return Vocabulary{tokens: out, index: idx}, nil
}

// BuildVocabulary normalizes every corpus item and indexes the sorted union of their tokens.
func BuildVocabulary(corpus []string) (Vocabulary, error) {
	seen := make(map[string]struct{})
	for i, text := range corpus {
		toks, err := Normalize(text)
		if err != nil {
			return Vocabulary{}, &ValidationError{Field: fmt.Sprintf("corpus[%d]", i), Reason: err.Error()}
		}
		for _, t := range toks {
			seen[t] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return NewVocabulary(tokens)
}

// Len returns the number of tokens, which is also the vector width.
func (v Vocabulary) Len() int { return len(v.tokens) }

// Index returns the position of token.
func (v Vocabulary) Index(token string) (int, bool) {
	i, ok := v.index[token]
	return i, ok
}

// Tokens returns a copy of the tokens in index order.
func (v Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Map returns the token→index mapping.
func (v Vocabulary) Map() map[string]int {
	out := make(map[string]int, len(v.index))
	for k, i := range v.index {
		out[k] = i
	}
	return out
}
