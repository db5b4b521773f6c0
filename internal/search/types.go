package search

// Result is one similar record shaped for display.
type Result struct {
	Corpus   string
	ID       int64
	Content  string
	Score    float64
	Metadata map[string]any
}
