// Package weighting turns the raw accumulated frequencies of an inverted
// index into TF-IDF scores and computes each document's vector norm.
package weighting

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// Weighter applies one TF formula, fixed at construction.
type Weighter struct {
	normalized bool
	mode       config.TFMode
}

// New validates the weighting options. A missing or unknown tf mode is a
// configuration error, reported before any index is touched.
func New(cfg config.WeightingConfig) (*Weighter, error) {
	switch cfg.TFMode {
	case config.TFMultiply, config.TFDivide, config.TFLog:
	default:
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "tf mode %q is not one of multiply, divide, log", cfg.TFMode)
	}
	return &Weighter{normalized: cfg.TFNormalized, mode: cfg.TFMode}, nil
}

// TF returns the term-frequency component for raw weight f in a document
// whose largest raw weight is maxInDoc.
func (w *Weighter) TF(f, maxInDoc float64) float64 {
	if !w.normalized {
		maxInDoc = 1
	}
	switch w.mode {
	case config.TFMultiply:
		return f * maxInDoc
	case config.TFDivide:
		return f / maxInDoc
	default:
		return 1 + math.Log10(f)*maxInDoc
	}
}

// IDF returns ln(n/df).
func IDF(n, df int) float64 {
	return math.Log(float64(n) / float64(df))
}

// Apply rewrites idx in place so every weight becomes tf×idf, using df for
// document frequencies and n as the collection size, and returns the norm of
// every document. It fails with ErrEmptyCollection when n is 0, with
// ErrAlreadyWeighted on an index that was already transformed, and with
// ErrPrecondition when a raw weight is not positive or a term has no
// document frequency. On error idx is unchanged.
func (w *Weighter) Apply(idx *index.InvertedIndex, df index.DocFreq, n int) (index.Norms, error) {
	if n <= 0 {
		return nil, apperrors.New(apperrors.ErrEmptyCollection, "cannot compute idf over zero documents")
	}
	if idx.Weighted() {
		return nil, apperrors.New(apperrors.ErrAlreadyWeighted, "tf-idf already applied")
	}
	norms := make(index.Norms, idx.Len())
	err := idx.Reweight(func(docID string, raw map[string]float64) (map[string]float64, error) {
		maxInDoc := 0.0
		for _, f := range raw {
			maxInDoc = math.Max(maxInDoc, f)
		}
		out := make(map[string]float64, len(raw))
		sumSquares := 0.0
		for _, term := range index.SortedTerms(raw) {
			f := raw[term]
			if f <= 0 {
				return nil, apperrors.Newf(apperrors.ErrPrecondition, "document %s: term %q has non-positive weight %v", docID, term, f)
			}
			count, ok := df[term]
			if !ok || count <= 0 {
				return nil, apperrors.Newf(apperrors.ErrPrecondition, "document %s: term %q has no document frequency", docID, term)
			}
			score := w.TF(f, maxInDoc) * IDF(n, count)
			out[term] = score
			sumSquares += score * score
		}
		norms[docID] = math.Sqrt(sumSquares)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return norms, nil
}
