package evaluation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/logger"
)

// Query is a weighted query ready for scoring.
type Query struct {
	ID    string
	Terms map[string]float64
}

// RankFunc produces the ranked result of one query.
type RankFunc func(ctx context.Context, q Query) ([]similarity.ScoredDoc, error)

// QueryResult holds the measures of one query.
type QueryResult struct {
	ID        string          `json:"query_id"`
	Relevant  int             `json:"relevant"`
	Retrieved int             `json:"retrieved"`
	Precision map[int]float64 `json:"precision"`
	Recall    map[int]float64 `json:"recall"`
	Curve     []Point         `json:"curve"`
}

// Summary averages the measures over every evaluated query.
type Summary struct {
	Queries       int             `json:"queries"`
	MeanPrecision map[int]float64 `json:"mean_precision"`
	MeanRecall    map[int]float64 `json:"mean_recall"`
	MeanCurve     []Point         `json:"mean_curve"`
}

// Report is the outcome of one evaluation run.
type Report struct {
	RunID   string        `json:"run_id"`
	Cutoffs []int         `json:"cutoffs"`
	Results []QueryResult `json:"results"`
	Summary Summary       `json:"summary"`
	Skipped []string      `json:"skipped,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

type Evaluator struct {
	cutoffs []int
	levels  []float64
	rank    RankFunc
}

func New(cfg config.EvaluationConfig, rank RankFunc) *Evaluator {
	cutoffs := append([]int(nil), cfg.Cutoffs...)
	sort.Ints(cutoffs)
	return &Evaluator{
		cutoffs: cutoffs,
		levels:  append([]float64(nil), cfg.RecallLevels...),
		rank:    rank,
	}
}

// Evaluate measures one ranked result against its relevant set.
func (e *Evaluator) Evaluate(id string, ranked []similarity.ScoredDoc, relevant RelevantSet) QueryResult {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.DocID
	}
	res := QueryResult{
		ID:        id,
		Relevant:  len(relevant),
		Retrieved: len(ranked),
		Precision: make(map[int]float64, len(e.cutoffs)),
		Recall:    make(map[int]float64, len(e.cutoffs)),
		Curve:     Curve(ids, relevant, e.levels),
	}
	for _, k := range e.cutoffs {
		res.Precision[k] = PrecisionAt(ids, relevant, k)
		res.Recall[k] = RecallAt(ids, relevant, k)
	}
	return res
}

// Run ranks and measures every query in ascending id order. Queries without
// any relevant document are skipped since their recall is undefined.
func (e *Evaluator) Run(ctx context.Context, queries []Query, judgments map[string]RelevantSet) (*Report, error) {
	log := logger.FromContext(ctx).With("component", "evaluator")
	start := time.Now()

	ordered := append([]Query(nil), queries...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	report := &Report{Cutoffs: e.cutoffs}
	for _, q := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		relevant := judgments[q.ID]
		if len(relevant) == 0 {
			log.Warn("query skipped: no relevant documents judged", "query_id", q.ID)
			report.Skipped = append(report.Skipped, q.ID)
			continue
		}
		ranked, err := e.rank(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("ranking query %s: %w", q.ID, err)
		}
		res := e.Evaluate(q.ID, ranked, relevant)
		log.Debug("query evaluated", "query_id", q.ID, "retrieved", res.Retrieved, "relevant", res.Relevant)
		report.Results = append(report.Results, res)
	}
	report.Summary = e.summarize(report.Results)
	report.Elapsed = time.Since(start)
	log.Info("evaluation complete",
		"queries", report.Summary.Queries,
		"skipped", len(report.Skipped),
		"elapsed", report.Elapsed,
	)
	return report, nil
}

func (e *Evaluator) summarize(results []QueryResult) Summary {
	s := Summary{
		Queries:       len(results),
		MeanPrecision: make(map[int]float64, len(e.cutoffs)),
		MeanRecall:    make(map[int]float64, len(e.cutoffs)),
		MeanCurve:     make([]Point, len(e.levels)),
	}
	for i, level := range e.levels {
		s.MeanCurve[i].Recall = level
	}
	if len(results) == 0 {
		return s
	}
	n := float64(len(results))
	for _, r := range results {
		for _, k := range e.cutoffs {
			s.MeanPrecision[k] += r.Precision[k] / n
			s.MeanRecall[k] += r.Recall[k] / n
		}
		for i, p := range r.Curve {
			s.MeanCurve[i].Precision += p.Precision / n
		}
	}
	return s
}
