package index

import "sort"

// DefaultTopN is the number of results returned when no positive limit is given.
const DefaultTopN = 5

// Scored is one ranked row of a matrix.
type Scored struct {
	Index int
	Score float64
}

// Rank scores every row of m against query and returns the best topN rows with a
// positive score, ordered by score (descending) then by row index (ascending).
func Rank(query Vector, m Matrix, topN int) ([]Scored, error) {
	if topN <= 0 {
		topN = DefaultTopN
	}
	out := make([]Scored, 0, len(m))
	for i, row := range m {
		score, err := Cosine(row, query)
		if err != nil {
			return nil, err
		}
		if score <= 0 {
			continue
		}
		out = append(out, Scored{Index: i, Score: score})
	}
	SortScored(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// SortScored sorts by score (descending), then by index (ascending).
func SortScored(s []Scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score == s[j].Score {
			return s[i].Index < s[j].Index
		}
		return s[i].Score > s[j].Score
	})
}
