package extract

import (
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/stemmer"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
)

// Fragment is a run of text together with the name of the element that
// directly encloses it.
type Fragment struct {
	Tag  string
	Text string
}

// Extractor is safe for concurrent use once built: it only reads its fields.
type Extractor struct {
	stop        Stopwords
	stemmer     stemmer.Stemmer
	nGramMax    int
	nGramWeight float64
	tags        TagScorer
	merge       config.MergePolicy
	divisor     float64
}

func New(ecfg config.ExtractionConfig, qcfg config.QueryConfig, stop Stopwords, st stemmer.Stemmer) *Extractor {
	if stop == nil {
		stop = DefaultStopwords()
	}
	if st == nil {
		st = stemmer.Identity
	}
	return &Extractor{
		stop:        stop,
		stemmer:     st,
		nGramMax:    ecfg.NGramMax,
		nGramWeight: ecfg.NGramWeight,
		tags:        NewTagScorer(ecfg.TagWeights, ecfg.TagScores),
		merge:       qcfg.SynonymMerge,
		divisor:     qcfg.SynonymDivisor,
	}
}

// Terms returns the n-grams of text in extraction order.
func (e *Extractor) Terms(text string) []string {
	return NGrams(e.Words(text), e.nGramMax)
}

// DocumentTerms sums the structural score of every term occurrence across
// fragments, then scales multi-word terms by the n-gram weight. Fragments
// whose tag scores 0 are skipped entirely, so every returned weight is > 0
// unless the n-gram weight itself is 0, in which case phrases are dropped.
func (e *Extractor) DocumentTerms(fragments []Fragment) map[string]float64 {
	freq := make(map[string]float64)
	for _, f := range fragments {
		score := e.tags.Score(f.Tag)
		if score <= 0 {
			continue
		}
		for _, term := range e.Terms(f.Text) {
			freq[term] += score
		}
	}
	for term, f := range freq {
		if !IsPhrase(term) {
			continue
		}
		if e.nGramWeight == 0 {
			delete(freq, term)
			continue
		}
		freq[term] = f * e.nGramWeight
	}
	return freq
}

// QueryTerms weights a query's keywords. Every term of a primary entry gets
// weight 1. Each synonym group shares 1/divisor of a primary term's influence
// evenly among the n-grams it produces. A term seen more than once is merged
// with the configured policy.
func (e *Extractor) QueryTerms(primary []string, groups [][]string) map[string]float64 {
	weights := make(map[string]float64)
	for _, entry := range primary {
		for _, term := range e.Terms(entry) {
			e.put(weights, term, 1.0)
		}
	}
	for _, group := range groups {
		var terms []string
		for _, entry := range group {
			terms = append(terms, e.Terms(entry)...)
		}
		if len(terms) == 0 {
			continue
		}
		w := 1.0 / (e.divisor * float64(len(terms)))
		for _, term := range terms {
			e.put(weights, term, w)
		}
	}
	return weights
}

func (e *Extractor) put(weights map[string]float64, term string, w float64) {
	prev, seen := weights[term]
	switch {
	case !seen:
		weights[term] = w
	case e.merge == config.MergeSum:
		weights[term] = prev + w
	case e.merge == config.MergeOverwrite:
		weights[term] = w
	}
}
