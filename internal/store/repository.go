package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
)

// Repository maps the domain values onto the evaluation tables.
type Repository struct {
	store Store
}

func NewRepository(s Store) *Repository {
	return &Repository{store: s}
}

// SaveIndex replaces the stored index with the raw weights of idx.
func (r *Repository) SaveIndex(ctx context.Context, idx *index.InvertedIndex) error {
	for _, t := range []Table{Documents, InvertedIndex, IDF} {
		if err := r.store.Recreate(ctx, t); err != nil {
			return err
		}
	}
	docs := make([]Record, 0, idx.Len())
	var entries []Record
	err := idx.Each(func(docID string, terms map[string]float64) error {
		docs = append(docs, Record{docID})
		for _, term := range index.SortedTerms(terms) {
			entries = append(entries, Record{term, docID, terms[term]})
		}
		return nil
	})
	if err != nil {
		return err
	}
	df := idx.DocFreq()
	words := make([]string, 0, len(df))
	for w := range df {
		words = append(words, w)
	}
	sort.Strings(words)
	idf := make([]Record, len(words))
	for i, w := range words {
		idf[i] = Record{w, int64(df[w])}
	}

	if err := r.store.Put(ctx, Documents, docs); err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}
	if err := r.store.Put(ctx, InvertedIndex, entries); err != nil {
		return fmt.Errorf("storing inverted index: %w", err)
	}
	if err := r.store.Put(ctx, IDF, idf); err != nil {
		return fmt.Errorf("storing document frequencies: %w", err)
	}
	return nil
}

// LoadIndex rebuilds the raw index and returns it with the stored
// document-frequency table.
func (r *Repository) LoadIndex(ctx context.Context) (*index.InvertedIndex, index.DocFreq, error) {
	contributions := make(map[string]map[string]float64)
	err := r.store.ScanAll(ctx, Documents, func(rec Record) error {
		contributions[rec[0].(string)] = make(map[string]float64)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading documents: %w", err)
	}
	err = r.store.ScanAll(ctx, InvertedIndex, func(rec Record) error {
		word, doc, freq := rec[0].(string), rec[1].(string), rec[2].(float64)
		terms, ok := contributions[doc]
		if !ok {
			terms = make(map[string]float64)
			contributions[doc] = terms
		}
		terms[word] = freq
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading inverted index: %w", err)
	}

	idx := index.New()
	ids := make([]string, 0, len(contributions))
	for id := range contributions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := idx.Add(index.Contribution{DocID: id, Terms: contributions[id]}); err != nil {
			return nil, nil, err
		}
	}

	df := make(index.DocFreq)
	err = r.store.ScanAll(ctx, IDF, func(rec Record) error {
		df[rec[0].(string)] = int(rec[1].(int64))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("loading document frequencies: %w", err)
	}
	return idx, df, nil
}

// HasDocument reports whether docID was indexed.
func (r *Repository) HasDocument(ctx context.Context, docID string) (bool, error) {
	_, ok, err := r.store.Get(ctx, Documents, docID)
	return ok, err
}

// SaveQueries replaces the stored queries.
func (r *Repository) SaveQueries(ctx context.Context, queries []evaluation.Query) error {
	if err := r.store.Recreate(ctx, Requests); err != nil {
		return err
	}
	var records []Record
	for _, q := range queries {
		for _, term := range index.SortedTerms(q.Terms) {
			records = append(records, Record{q.ID, term, q.Terms[term]})
		}
	}
	if err := r.store.Put(ctx, Requests, records); err != nil {
		return fmt.Errorf("storing queries: %w", err)
	}
	return nil
}

// LoadQueries returns the stored queries ordered by id.
func (r *Repository) LoadQueries(ctx context.Context) ([]evaluation.Query, error) {
	byID := make(map[string]map[string]float64)
	err := r.store.ScanAll(ctx, Requests, func(rec Record) error {
		id := rec[0].(string)
		terms, ok := byID[id]
		if !ok {
			terms = make(map[string]float64)
			byID[id] = terms
		}
		terms[rec[1].(string)] = rec[2].(float64)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading queries: %w", err)
	}
	queries := make([]evaluation.Query, 0, len(byID))
	for id, terms := range byID {
		queries = append(queries, evaluation.Query{ID: id, Terms: terms})
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].ID < queries[j].ID })
	return queries, nil
}

// Judgment is one stored relevance judgment.
type Judgment struct {
	QueryID   string
	DocID     string
	Relevance int
}

// SaveJudgments replaces the stored relevance judgments.
func (r *Repository) SaveJudgments(ctx context.Context, judgments []Judgment) error {
	if err := r.store.Recreate(ctx, RequestsResults); err != nil {
		return err
	}
	records := make([]Record, len(judgments))
	for i, j := range judgments {
		records[i] = Record{j.QueryID, j.DocID, int64(j.Relevance)}
	}
	if err := r.store.Put(ctx, RequestsResults, records); err != nil {
		return fmt.Errorf("storing judgments: %w", err)
	}
	return nil
}

// LoadJudgments returns, per query id, the documents judged relevant
// (relevance > 0).
func (r *Repository) LoadJudgments(ctx context.Context) (map[string]evaluation.RelevantSet, error) {
	out := make(map[string]evaluation.RelevantSet)
	err := r.store.ScanAll(ctx, RequestsResults, func(rec Record) error {
		if rec[2].(int64) <= 0 {
			return nil
		}
		id := rec[0].(string)
		set, ok := out[id]
		if !ok {
			set = make(evaluation.RelevantSet)
			out[id] = set
		}
		set[rec[1].(string)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading judgments: %w", err)
	}
	return out, nil
}
