package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/sqlite"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			client, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
			require.NoError(t, err)
			s := NewSQLStore(client.DB, SQLiteDialect, 2)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			require.NoError(t, s.Recreate(ctx, Requests))

			require.NoError(t, s.Put(ctx, Requests, []Record{
				{"Q1", "chat", 1.0},
				{"Q1", "félin", 1.0 / 6},
				{"Q2", "chien", 1.0},
			}))
			// insert-if-absent keeps the first weight
			require.NoError(t, s.Put(ctx, Requests, []Record{{"Q1", "chat", 0.25}}))

			rec, ok, err := s.Get(ctx, Requests, "Q1", "chat")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, Record{"Q1", "chat", 1.0}, rec)

			_, ok, err = s.Get(ctx, Requests, "Q9", "chat")
			require.NoError(t, err)
			assert.False(t, ok)

			var scanned []Record
			require.NoError(t, s.ScanAll(ctx, Requests, func(r Record) error {
				scanned = append(scanned, r)
				return nil
			}))
			assert.Equal(t, []Record{
				{"Q1", "chat", 1.0},
				{"Q1", "félin", 1.0 / 6},
				{"Q2", "chien", 1.0},
			}, scanned)

			require.NoError(t, s.Recreate(ctx, Requests))
			count := 0
			require.NoError(t, s.ScanAll(ctx, Requests, func(Record) error { count++; return nil }))
			assert.Zero(t, count)
		})
	}
}

func TestStoreRejectsBadRecords(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			require.NoError(t, s.Recreate(ctx, IDF))
			err := s.Put(ctx, IDF, []Record{{"chat", 1}})
			assert.ErrorIs(t, err, apperrors.ErrStorage)
			err = s.Put(ctx, IDF, []Record{{"chat"}})
			assert.ErrorIs(t, err, apperrors.ErrStorage)
			_, _, err = s.Get(ctx, IDF, "chat", "extra")
			assert.ErrorIs(t, err, apperrors.ErrStorage)
		})
	}
}

func TestRepositoryIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewRepository(open(t))
			idx := index.New()
			require.NoError(t, idx.Add(index.Contribution{DocID: "D1.html", Terms: map[string]float64{"chat": 4.15, "chat noir": 1.1}}))
			require.NoError(t, idx.Add(index.Contribution{DocID: "D2.html", Terms: map[string]float64{"chat": 1}}))
			require.NoError(t, idx.Add(index.Contribution{DocID: "D3.html"}))
			require.NoError(t, repo.SaveIndex(ctx, idx))

			loaded, df, err := repo.LoadIndex(ctx)
			require.NoError(t, err)
			assert.Equal(t, idx.DocIDs(), loaded.DocIDs())
			assert.Equal(t, index.DocFreq{"chat": 2, "chat noir": 1}, df)
			assert.Equal(t, idx.DocFreq(), loaded.DocFreq())
			for _, id := range idx.DocIDs() {
				assert.Equal(t, idx.Terms(id), loaded.Terms(id), id)
			}

			ok, err := repo.HasDocument(ctx, "D3.html")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = repo.HasDocument(ctx, "D9.html")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRepositoryQueriesAndJudgments(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := NewRepository(open(t))
			queries := []evaluation.Query{
				{ID: "Q2", Terms: map[string]float64{"chien": 1}},
				{ID: "Q1", Terms: map[string]float64{"chat": 1, "félin": 1.0 / 6}},
			}
			require.NoError(t, repo.SaveQueries(ctx, queries))
			loaded, err := repo.LoadQueries(ctx)
			require.NoError(t, err)
			require.Len(t, loaded, 2)
			assert.Equal(t, queries[1], loaded[0])
			assert.Equal(t, queries[0], loaded[1])

			require.NoError(t, repo.SaveJudgments(ctx, []Judgment{
				{QueryID: "Q1", DocID: "D1.html", Relevance: 1},
				{QueryID: "Q1", DocID: "D2.html", Relevance: 0},
				{QueryID: "Q2", DocID: "D2.html", Relevance: 1},
			}))
			judgments, err := repo.LoadJudgments(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]evaluation.RelevantSet{
				"Q1": evaluation.NewRelevantSet("D1.html"),
				"Q2": evaluation.NewRelevantSet("D2.html"),
			}, judgments)
		})
	}
}
