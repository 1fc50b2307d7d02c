// Package evaluation measures ranked results against human relevance
// judgments: precision and recall at fixed cutoffs and the interpolated
// precision-recall curve, per query and averaged over queries.
package evaluation

// RelevantSet holds the ids of the documents judged relevant for one query.
type RelevantSet map[string]struct{}

func NewRelevantSet(docIDs ...string) RelevantSet {
	s := make(RelevantSet, len(docIDs))
	for _, id := range docIDs {
		s[id] = struct{}{}
	}
	return s
}

func (s RelevantSet) Contains(docID string) bool {
	_, ok := s[docID]
	return ok
}

// Point is one point of an interpolated precision-recall curve.
type Point struct {
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
}

// FoundAt counts the relevant documents among the first k of ranked.
func FoundAt(ranked []string, relevant RelevantSet, k int) int {
	found := 0
	for i, id := range ranked {
		if i == k {
			break
		}
		if relevant.Contains(id) {
			found++
		}
	}
	return found
}

// PrecisionAt is FoundAt divided by k. Missing ranks count as non-relevant.
func PrecisionAt(ranked []string, relevant RelevantSet, k int) float64 {
	if k <= 0 {
		return 0
	}
	return float64(FoundAt(ranked, relevant, k)) / float64(k)
}

// RecallAt is FoundAt divided by the number of relevant documents. It is 0
// for an empty relevant set.
func RecallAt(ranked []string, relevant RelevantSet, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(FoundAt(ranked, relevant, k)) / float64(len(relevant))
}

// InterpolatedPrecision returns the highest precision observed at any rank
// where at least level×|relevant| relevant documents have been found. It is
// 0 when that many are never found.
func InterpolatedPrecision(ranked []string, relevant RelevantSet, level float64) float64 {
	target := level * float64(len(relevant))
	found := 0
	best := 0.0
	for i, id := range ranked {
		if relevant.Contains(id) {
			found++
		}
		precision := float64(found) / float64(i+1)
		if float64(found) >= target && precision > best {
			best = precision
		}
	}
	return best
}

// Curve evaluates InterpolatedPrecision at every recall level.
func Curve(ranked []string, relevant RelevantSet, levels []float64) []Point {
	points := make([]Point, len(levels))
	for i, level := range levels {
		points[i] = Point{Recall: level, Precision: InterpolatedPrecision(ranked, relevant, level)}
	}
	return points
}
