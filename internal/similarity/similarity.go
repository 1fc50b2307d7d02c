// Package similarity scores a weighted query against a weighted inverted index
// and ranks the documents.
package similarity

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// ScoredDoc is one entry of a ranked result.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Scorer ranks documents for a query. It only reads the index, norms and
// document-frequency table, so one Scorer may serve concurrent queries.
type Scorer struct {
	cfg   config.SimilarityConfig
	idx   *index.InvertedIndex
	norms index.Norms
	df    index.DocFreq
}

func New(cfg config.SimilarityConfig, idx *index.InvertedIndex, norms index.Norms, df index.DocFreq) (*Scorer, error) {
	switch cfg.Mode {
	case config.SimilarityCosine, config.SimilarityJaccard, config.SimilarityDice, config.SimilarityNone:
	default:
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "similarity mode %q is not one of cosine, jaccard, dice, none", cfg.Mode)
	}
	if !idx.Weighted() {
		return nil, apperrors.New(apperrors.ErrPrecondition, "index must be weighted before scoring")
	}
	return &Scorer{cfg: cfg, idx: idx, norms: norms, df: df}, nil
}

// QueryIDF is the query-side idf contribution: the raw document count of
// term, not its logarithm. Unknown terms have no contribution.
func (s *Scorer) QueryIDF(term string) (float64, bool) {
	count, ok := s.df[term]
	return float64(count), ok
}

// queryValue is the weight of one query term in the query vector.
func (s *Scorer) queryValue(term string, weight float64) float64 {
	v := 1.0
	if s.cfg.UseIDFInQuery {
		v, _ = s.QueryIDF(term)
	}
	if s.cfg.UseSynonymWeights {
		v *= weight
	}
	return v
}

// QueryNorm returns the sum of squared query vector values. It is not
// square-rooted.
func (s *Scorer) QueryNorm(query map[string]float64) float64 {
	norm := 0.0
	for _, term := range index.SortedTerms(query) {
		v := s.queryValue(term, query[term])
		norm += v * v
	}
	return norm
}

// Dot accumulates the raw dot product between query and every document that
// contains at least one query term.
func (s *Scorer) Dot(query map[string]float64) map[string]float64 {
	scores := make(map[string]float64)
	for _, term := range index.SortedTerms(query) {
		factor := 1.0
		if s.cfg.UseSynonymWeights {
			factor *= query[term]
		}
		if s.cfg.UseIDFInQuery {
			if idf, ok := s.QueryIDF(term); ok {
				factor *= idf
			}
		}
		for _, docID := range s.idx.Postings(term) {
			w, _ := s.idx.Weight(docID, term)
			scores[docID] += w * factor
		}
	}
	return scores
}

// Rank scores query against the index and returns documents by descending
// score, ties broken by ascending document id. Documents sharing no term with
// the query are omitted unless IncludeZeroScores is set.
func (s *Scorer) Rank(query map[string]float64) []ScoredDoc {
	dots := s.Dot(query)
	if s.cfg.IncludeZeroScores {
		for _, id := range s.idx.DocIDs() {
			if _, ok := dots[id]; !ok {
				dots[id] = 0
			}
		}
	}
	qnorm := s.QueryNorm(query)
	ranked := make([]ScoredDoc, 0, len(dots))
	for docID, dot := range dots {
		ranked = append(ranked, ScoredDoc{DocID: docID, Score: s.transform(dot, s.norms[docID], qnorm)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	return ranked
}

// transform normalises a dot product. A zero denominator yields 0.
func (s *Scorer) transform(dot, dnorm, qnorm float64) float64 {
	var num, den float64
	switch s.cfg.Mode {
	case config.SimilarityCosine:
		num = dot
		if s.cfg.StrictCosine {
			den = dnorm * math.Sqrt(qnorm)
		} else {
			den = math.Sqrt(dnorm * qnorm)
		}
	case config.SimilarityJaccard:
		num, den = dot, dnorm+qnorm-dot
	case config.SimilarityDice:
		num, den = 2*dot, dnorm+qnorm
	default:
		return dot
	}
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den
}
