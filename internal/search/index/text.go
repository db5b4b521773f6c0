package index

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, splits it on word boundaries, drops English stopwords and
// reduces every remaining token to its lemma. Token order and duplicates are preserved.
func Normalize(text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, &ValidationError{Field: "text", Reason: "not valid UTF-8"}
	}
	folded := cases.Lower(language.Und).String(norm.NFKC.String(text))

	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, Lemma(w))
	}
	return tokens, nil
}

// Lemma returns the canonical noun form of a lower-case token.
func Lemma(word string) string {
	if base, ok := irregularNouns[word]; ok {
		return base
	}
	if _, ok := invariantNouns[word]; ok {
		return word
	}
	if utf8.RuneCountInString(word) < 4 {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"), strings.HasSuffix(word, "xes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}

var irregularNouns = map[string]string{
	"children":  "child",
	"people":    "person",
	"men":       "man",
	"women":     "woman",
	"mice":      "mouse",
	"geese":     "goose",
	"feet":      "foot",
	"teeth":     "tooth",
	"analyses":  "analysis",
	"indices":   "index",
	"matrices":  "matrix",
	"criteria":  "criterion",
	"phenomena": "phenomenon",
	"caches":    "cache",
}

var invariantNouns = map[string]struct{}{
	"series":  {},
	"species": {},
	"news":    {},
	"always":  {},
	"perhaps": {},
	"towards": {},
	"alias":   {},
	"atlas":   {},
	"bias":    {},
	"canvas":  {},
	"chaos":   {},
	"lens":    {},
}

// English stopwords (NLTK list, apostrophe forms omitted since they never survive tokenizing).
var stopWords = func() map[string]struct{} {
	const list = `i me my myself we our ours ourselves you your yours yourself yourselves
he him his himself she her hers herself it its itself they them their theirs themselves
what which who whom this that these those am is are was were be been being have has had
having do does did doing a an the and but if or because as until while of at by for with
about against between into through during before after above below to from up down in out
on off over under again further then once here there when where why how all any both each
few more most other some such no nor not only own same so than too very s t can will just
don should now d ll m o re ve y ain aren couldn didn doesn hadn hasn haven isn ma mightn
mustn needn shan shouldn wasn weren won wouldn`
	out := make(map[string]struct{}, 160)
	for _, w := range strings.Fields(list) {
		out[w] = struct{}{}
	}
	return out
}()
