package index

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

func TestAddAccumulatesDocFreq(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add(Contribution{DocID: "D1", Terms: map[string]float64{"chat": 2, "noir": 1}}))
	require.NoError(t, idx.Add(Contribution{DocID: "D2", Terms: map[string]float64{"chien": 1, "noir": 1}}))
	require.NoError(t, idx.Add(Contribution{DocID: "D3"}))

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, DocFreq{"chat": 1, "noir": 2, "chien": 1}, idx.DocFreq())
	assert.ElementsMatch(t, []string{"D1", "D2"}, idx.Postings("noir"))
	assert.Equal(t, []string{"D1", "D2", "D3"}, idx.DocIDs())
	assert.Empty(t, idx.Terms("D3"))

	w, ok := idx.Weight("D1", "chat")
	assert.True(t, ok)
	assert.Equal(t, 2.0, w)
	_, ok = idx.Weight("D2", "chat")
	assert.False(t, ok)
}

func TestDocFreqCountsDistinctDocuments(t *testing.T) {
	idx := New()
	for i := 0; i < 20; i++ {
		terms := map[string]float64{"commun": float64(i + 1)}
		if i%3 == 0 {
			terms["rare"] = 4
		}
		require.NoError(t, idx.Add(Contribution{DocID: fmt.Sprintf("D%02d", i), Terms: terms}))
	}
	for term, df := range idx.DocFreq() {
		count := 0
		for _, id := range idx.DocIDs() {
			if _, ok := idx.Weight(id, term); ok {
				count++
			}
		}
		assert.Equal(t, count, df, term)
	}
}

func TestAddRejectsDuplicateDocument(t *testing.T) {
	idx := New()
	c := Contribution{DocID: "D1", Terms: map[string]float64{"chat": 1}}
	require.NoError(t, idx.Add(c))

	err := idx.Add(c)
	assert.ErrorIs(t, err, apperrors.ErrPrecondition)
	assert.Equal(t, 1, idx.DocFreq()["chat"])
}

func TestAddCopiesTerms(t *testing.T) {
	terms := map[string]float64{"chat": 1}
	idx := New()
	require.NoError(t, idx.Add(Contribution{DocID: "D1", Terms: terms}))
	terms["chat"] = 99

	w, _ := idx.Weight("D1", "chat")
	assert.Equal(t, 1.0, w)
}

func TestReweightOnce(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add(Contribution{DocID: "D1", Terms: map[string]float64{"chat": 2}}))

	double := func(_ string, raw map[string]float64) (map[string]float64, error) {
		out := make(map[string]float64, len(raw))
		for t, w := range raw {
			out[t] = w * 2
		}
		return out, nil
	}
	require.NoError(t, idx.Reweight(double))
	assert.True(t, idx.Weighted())
	w, _ := idx.Weight("D1", "chat")
	assert.Equal(t, 4.0, w)

	assert.ErrorIs(t, idx.Reweight(double), apperrors.ErrAlreadyWeighted)
	w, _ = idx.Weight("D1", "chat")
	assert.Equal(t, 4.0, w)

	assert.ErrorIs(t, idx.Add(Contribution{DocID: "D2"}), apperrors.ErrAlreadyWeighted)
}

func TestReweightFailureLeavesIndexUntouched(t *testing.T) {
	idx := New()
	require.NoError(t, idx.Add(Contribution{DocID: "D1", Terms: map[string]float64{"chat": 2}}))
	require.NoError(t, idx.Add(Contribution{DocID: "D2", Terms: map[string]float64{"chat": 3}}))

	boom := errors.New("boom")
	err := idx.Reweight(func(id string, raw map[string]float64) (map[string]float64, error) {
		if id == "D2" {
			return nil, boom
		}
		return map[string]float64{"chat": 0}, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, idx.Weighted())
	w, _ := idx.Weight("D1", "chat")
	assert.Equal(t, 2.0, w)
}

func TestBuilderSkipsFailedDocuments(t *testing.T) {
	extract := func(_ context.Context, id string) (Contribution, error) {
		if id == "broken" {
			return Contribution{}, apperrors.New(apperrors.ErrMalformedInput, "bad html")
		}
		return Contribution{Terms: map[string]float64{"mot": 1, id: 1}}, nil
	}
	ids := []string{"a", "b", "broken", "c", "d", "e"}

	idx, stats, err := NewBuilder(3, extract).Build(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Indexed)
	assert.Equal(t, []string{"broken"}, stats.Skipped)
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, 5, idx.DocFreq()["mot"])
	assert.False(t, idx.Has("broken"))
}

func TestBuilderMatchesSequentialAccumulation(t *testing.T) {
	extract := func(_ context.Context, id string) (Contribution, error) {
		return Contribution{Terms: map[string]float64{"x": float64(len(id)), "y" + id[:1]: 1}}, nil
	}
	ids := []string{"alpha", "beta", "gamma", "delta", "avocado", "banana"}

	parallel, _, err := NewBuilder(4, extract).Build(context.Background(), ids)
	require.NoError(t, err)

	sequential := New()
	for _, id := range ids {
		c, _ := extract(context.Background(), id)
		c.DocID = id
		require.NoError(t, sequential.Add(c))
	}
	assert.Equal(t, sequential.DocFreq(), parallel.DocFreq())
	for _, id := range ids {
		assert.Equal(t, sequential.Terms(id), parallel.Terms(id))
	}
}

func TestBuilderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	extract := func(ctx context.Context, _ string) (Contribution, error) {
		return Contribution{}, ctx.Err()
	}
	_, _, err := NewBuilder(2, extract).Build(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}
