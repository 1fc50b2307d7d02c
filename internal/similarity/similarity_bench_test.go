package similarity

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
)

var vocabulary = []string{
	"chat", "chien", "noir", "blanc", "félin", "souris", "maison", "jardin",
	"rivière", "montagne", "ville", "route", "livre", "musique", "cinéma", "sport",
}

// benchScorer weights a synthetic collection where document i holds four
// vocabulary terms chosen from i.
func benchScorer(b *testing.B, docs int, mode config.SimilarityMode) *Scorer {
	b.Helper()
	idx := index.New()
	for i := 0; i < docs; i++ {
		terms := make(map[string]float64, 4)
		for j := 0; j < 4; j++ {
			terms[vocabulary[(i*(j+3)+j)%len(vocabulary)]] += float64(j + 1)
		}
		if err := idx.Add(index.Contribution{DocID: fmt.Sprintf("D%05d", i), Terms: terms}); err != nil {
			b.Fatal(err)
		}
	}
	w, err := weighting.New(config.WeightingConfig{TFMode: config.TFLog, TFNormalized: true})
	if err != nil {
		b.Fatal(err)
	}
	df := idx.DocFreq()
	norms, err := w.Apply(idx, df, idx.Len())
	if err != nil {
		b.Fatal(err)
	}
	cfg := config.Default().Similarity
	cfg.Mode = mode
	s, err := New(cfg, idx, norms, df)
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkRank(b *testing.B) {
	query := map[string]float64{"chat": 1, "noir": 1, "félin": 1.0 / 6, "souris": 1.0 / 6}
	for _, mode := range []config.SimilarityMode{config.SimilarityCosine, config.SimilarityJaccard, config.SimilarityDice} {
		b.Run(string(mode), func(b *testing.B) {
			s := benchScorer(b, 10000, mode)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Rank(query)
			}
		})
	}
}

func BenchmarkRankParallel(b *testing.B) {
	s := benchScorer(b, 10000, config.SimilarityCosine)
	query := map[string]float64{"chat": 1, "noir": 1}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = s.Rank(query)
		}
	})
}
