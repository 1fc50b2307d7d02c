package extract

import "strings"

// DefaultTagScores returns the structural weight of text found directly
// inside each element. Tags not listed score 1; non-content tags score 0
// and contribute nothing. Each call returns a new map.
func DefaultTagScores() map[string]float64 {
	return map[string]float64{
		"title":    3.15,
		"h2":       3.15,
		"b":        3.15,
		"strong":   2.95,
		"h1":       2.9,
		"h3":       2,
		"h4":       1.8,
		"li":       1,
		"p":        1,
		"a":        1,
		"script":   0,
		"noscript": 0,
		"img":      0,
		"link":     0,
		"meta":     0,
		"style":    0,
		"form":     0,
	}
}

// TagScorer resolves a tag name to its multiplicative weight.
type TagScorer struct {
	enabled bool
	scores  map[string]float64
}

// NewTagScorer builds a scorer from the defaults plus overrides. When
// disabled every tag scores 1.
func NewTagScorer(enabled bool, overrides map[string]float64) TagScorer {
	scores := DefaultTagScores()
	for tag, s := range overrides {
		scores[strings.ToLower(tag)] = s
	}
	return TagScorer{enabled: enabled, scores: scores}
}

func (t TagScorer) Score(tag string) float64 {
	if !t.enabled {
		return 1
	}
	if s, ok := t.scores[strings.ToLower(tag)]; ok {
		return s
	}
	return 1
}
