// Package index holds the inverted index built from per-document term
// weights, together with its document-frequency table.
//
// An index is filled by a single writer through Add, transformed exactly once
// by the weighting engine through Reweight, and then shared read-only by any
// number of concurrent scorers.
package index

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// Contribution is the extracted term weights of one document. It is produced
// independently per document and merged into the index by Add.
type Contribution struct {
	DocID string
	Terms map[string]float64
}

// DocFreq maps a term to the number of distinct documents containing it.
type DocFreq map[string]int

// Norms maps a document id to the Euclidean norm of its weighted vector.
type Norms map[string]float64

type InvertedIndex struct {
	docs     map[string]map[string]float64
	postings map[string][]string
	df       DocFreq
	weighted bool
}

func New() *InvertedIndex {
	return &InvertedIndex{
		docs:     make(map[string]map[string]float64),
		postings: make(map[string][]string),
		df:       make(DocFreq),
	}
}

// Add merges one document's contribution. A document may be added once; a
// second contribution for the same id is rejected so that no (document, term)
// pair is counted twice in the document-frequency table. Documents without
// terms are kept and count towards the collection size.
func (x *InvertedIndex) Add(c Contribution) error {
	if x.weighted {
		return apperrors.Newf(apperrors.ErrAlreadyWeighted, "cannot add %s to a weighted index", c.DocID)
	}
	if c.DocID == "" {
		return apperrors.New(apperrors.ErrPrecondition, "contribution without document id")
	}
	if _, exists := x.docs[c.DocID]; exists {
		return apperrors.Newf(apperrors.ErrPrecondition, "document %s already indexed", c.DocID)
	}
	terms := make(map[string]float64, len(c.Terms))
	for term, w := range c.Terms {
		terms[term] += w
	}
	x.docs[c.DocID] = terms
	for term := range terms {
		x.postings[term] = append(x.postings[term], c.DocID)
		x.df[term]++
	}
	return nil
}

// Len returns the number of indexed documents.
func (x *InvertedIndex) Len() int {
	return len(x.docs)
}

// DocIDs returns every indexed document id in ascending order.
func (x *InvertedIndex) DocIDs() []string {
	ids := make([]string, 0, len(x.docs))
	for id := range x.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether docID is indexed.
func (x *InvertedIndex) Has(docID string) bool {
	_, ok := x.docs[docID]
	return ok
}

// Weight returns the weight of term in docID: the raw accumulated frequency
// before Reweight, the TF-IDF score after.
func (x *InvertedIndex) Weight(docID, term string) (float64, bool) {
	w, ok := x.docs[docID][term]
	return w, ok
}

// Terms returns a copy of the term weights of docID.
func (x *InvertedIndex) Terms(docID string) map[string]float64 {
	src := x.docs[docID]
	out := make(map[string]float64, len(src))
	for t, w := range src {
		out[t] = w
	}
	return out
}

// Postings returns the ids of the documents containing term. The slice must
// not be modified.
func (x *InvertedIndex) Postings(term string) []string {
	return x.postings[term]
}

// DocFreq returns the document-frequency table accumulated by Add. The table
// must not be modified.
func (x *InvertedIndex) DocFreq() DocFreq {
	return x.df
}

// Weighted reports whether Reweight has been applied.
func (x *InvertedIndex) Weighted() bool {
	return x.weighted
}

// Reweight replaces the weights of every document with fn's result. It can
// run once per index: the raw weights are not retained, so a second call
// returns ErrAlreadyWeighted. If fn fails for any document the index is left
// unchanged.
func (x *InvertedIndex) Reweight(fn func(docID string, raw map[string]float64) (map[string]float64, error)) error {
	if x.weighted {
		return apperrors.New(apperrors.ErrAlreadyWeighted, "tf-idf already applied")
	}
	next := make(map[string]map[string]float64, len(x.docs))
	for _, id := range x.DocIDs() {
		weighted, err := fn(id, x.docs[id])
		if err != nil {
			return err
		}
		next[id] = weighted
	}
	x.docs = next
	x.weighted = true
	return nil
}

// Each calls fn for every document in ascending id order.
func (x *InvertedIndex) Each(fn func(docID string, terms map[string]float64) error) error {
	for _, id := range x.DocIDs() {
		if err := fn(id, x.docs[id]); err != nil {
			return err
		}
	}
	return nil
}

// SortedTerms returns the keys of terms in ascending order.
func SortedTerms(terms map[string]float64) []string {
	keys := make([]string, 0, len(terms))
	for t := range terms {
		keys = append(keys, t)
	}
	sort.Strings(keys)
	return keys
}
