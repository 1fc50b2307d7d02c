// Package pipeline runs the evaluation stages end to end: indexing the
// corpus, loading queries and relevance judgments into the store, then
// weighting, ranking and measuring.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/extract"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/htmldoc"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/index"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/publisher"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/similarity"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/stemmer"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/store"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/tracing"
)

const (
	StageIndex     = "index"
	StageQueries   = "queries"
	StageJudgments = "qrels"
	StageEvaluate  = "evaluate"
)

// Deps are the collaborators of a pipeline. Store is required; a nil Cache,
// Sink or Metrics disables that concern.
type Deps struct {
	Store   store.Store
	Cache   cache.Backend
	Sink    publisher.Sink
	Metrics *metrics.Metrics
}

type Pipeline struct {
	cfg       *config.Config
	repo      *store.Repository
	extractor *extract.Extractor
	cache     cache.Backend
	publisher *publisher.Publisher
	metrics   *metrics.Metrics
	runID     string
}

// New prepares a pipeline from cfg. It loads the stopword lists and the
// stemmer up front so a bad language or a missing file fails before any
// stage runs.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	if deps.Store == nil {
		return nil, apperrors.New(apperrors.ErrConfiguration, "pipeline needs a store")
	}
	stop, err := extract.LoadStopwords(cfg.Corpus.StopwordFiles...)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "loading stopwords: %v", err)
	}
	st, err := stemmer.NewSnowball(cfg.Extraction.Language)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:       cfg,
		repo:      store.NewRepository(deps.Store),
		extractor: extract.New(cfg.Extraction, cfg.Query, stop, st),
		cache:     deps.Cache,
		metrics:   deps.Metrics,
		runID:     uuid.NewString(),
	}
	if deps.Sink != nil {
		p.publisher = publisher.New(deps.Sink, cfg.Kafka.PublishTimeout)
	}
	return p, nil
}

func (p *Pipeline) RunID() string {
	return p.runID
}

// stage runs fn inside a span and records its duration. A stage started
// outside any span logs its own span tree.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context, span *tracing.Span) error) error {
	start := time.Now()
	ctx = logger.WithStage(logger.WithRunID(ctx, p.runID), name)
	root := tracing.FromContext(ctx) == nil
	ctx, span := tracing.Start(ctx, name, p.runID)
	err := fn(ctx, span)
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	span.End()
	if p.metrics != nil {
		p.metrics.ObserveStage(name, start)
	}
	if root && p.cfg.Tracing.Enabled {
		span.Log(logger.WithComponent("tracing"))
	}
	return err
}

// Run executes every stage in order.
func (p *Pipeline) Run(ctx context.Context) (*evaluation.Report, error) {
	ctx, root := tracing.Start(ctx, "run", p.runID)
	defer func() {
		root.End()
		if p.cfg.Tracing.Enabled {
			root.Log(logger.WithComponent("tracing"))
		}
	}()

	if _, err := p.Index(ctx); err != nil {
		return nil, err
	}
	if _, err := p.LoadQueries(ctx); err != nil {
		return nil, err
	}
	if _, err := p.LoadJudgments(ctx); err != nil {
		return nil, err
	}
	return p.Evaluate(ctx)
}

// Index extracts every file of the documents directory, stores the raw
// inverted index and invalidates cached rankings.
func (p *Pipeline) Index(ctx context.Context) (index.BuildStats, error) {
	var stats index.BuildStats
	err := p.stage(ctx, StageIndex, func(ctx context.Context, span *tracing.Span) error {
		log := logger.FromContext(ctx).With("component", "pipeline")
		dir := p.cfg.Corpus.DocumentsDir
		docIDs, err := listFiles(dir)
		if err != nil {
			return err
		}
		if len(docIDs) == 0 {
			return apperrors.Newf(apperrors.ErrEmptyCollection, "no documents in %s", dir)
		}
		log.Info("indexing documents", "dir", dir, "documents", len(docIDs))

		builder := index.NewBuilder(p.cfg.Indexer.Workers, p.extractDocument(dir))
		idx, built, err := builder.Build(ctx, docIDs)
		stats = built
		if err != nil {
			return err
		}
		if idx.Len() == 0 {
			return apperrors.Newf(apperrors.ErrEmptyCollection, "no readable documents in %s", dir)
		}
		if err := p.repo.SaveIndex(ctx, idx); err != nil {
			return err
		}
		if p.cache != nil {
			deleted, err := cache.Invalidate(ctx, p.cache)
			if err != nil {
				log.Warn("rank cache not invalidated", "error", err)
			} else {
				log.Info("rank cache invalidated", "keys_deleted", deleted)
			}
		}

		terms := len(idx.DocFreq())
		span.SetAttr("documents", idx.Len())
		span.SetAttr("skipped", len(stats.Skipped))
		span.SetAttr("terms", terms)
		if p.metrics != nil {
			p.metrics.DocsIndexed.Add(float64(stats.Indexed))
			p.metrics.DocsSkipped.Add(float64(len(stats.Skipped)))
			p.metrics.IndexTerms.Set(float64(terms))
		}
		return nil
	})
	return stats, err
}

func (p *Pipeline) extractDocument(dir string) index.ExtractFunc {
	return func(ctx context.Context, docID string) (index.Contribution, error) {
		f, err := os.Open(filepath.Join(dir, docID))
		if err != nil {
			return index.Contribution{}, apperrors.Newf(apperrors.ErrMalformedInput, "opening %s: %v", docID, err)
		}
		defer f.Close()
		doc, err := htmldoc.ParseDocument(f)
		if err != nil {
			return index.Contribution{}, apperrors.Newf(apperrors.ErrMalformedInput, "parsing %s: %v", docID, err)
		}
		return index.Contribution{
			DocID: docID,
			Terms: p.extractor.DocumentTerms(doc.Fragments()),
		}, nil
	}
}

// LoadQueries parses the queries file, extracts the weighted terms of each
// query and stores them. Queries with no usable term are dropped.
func (p *Pipeline) LoadQueries(ctx context.Context) ([]evaluation.Query, error) {
	var queries []evaluation.Query
	err := p.stage(ctx, StageQueries, func(ctx context.Context, span *tracing.Span) error {
		log := logger.FromContext(ctx).With("component", "pipeline")
		path := p.cfg.Corpus.QueriesFile
		f, err := os.Open(path)
		if err != nil {
			return apperrors.Newf(apperrors.ErrMalformedInput, "opening queries file %s: %v", path, err)
		}
		defer f.Close()

		sources, err := htmldoc.ParseQueries(f, p.cfg.Corpus.KeywordsLabel)
		if err != nil {
			return err
		}
		for _, src := range sources {
			terms := p.extractor.QueryTerms(src.Primary, src.Groups)
			if len(terms) == 0 {
				log.Warn("query has no terms", "query_id", src.ID)
				continue
			}
			queries = append(queries, evaluation.Query{ID: src.ID, Terms: terms})
		}
		if err := p.repo.SaveQueries(ctx, queries); err != nil {
			return err
		}
		span.SetAttr("queries", len(queries))
		log.Info("queries loaded", "queries", len(queries), "parsed", len(sources))
		return nil
	})
	return queries, err
}

// LoadJudgments reads every file of the qrels directory and stores the
// judgments. The query id of a file comes from its name.
func (p *Pipeline) LoadJudgments(ctx context.Context) ([]store.Judgment, error) {
	var judgments []store.Judgment
	err := p.stage(ctx, StageJudgments, func(ctx context.Context, span *tracing.Span) error {
		log := logger.FromContext(ctx).With("component", "pipeline")
		pattern, err := regexp.Compile(p.cfg.Corpus.QrelPattern)
		if err != nil {
			return apperrors.Newf(apperrors.ErrConfiguration, "qrel pattern %q: %v", p.cfg.Corpus.QrelPattern, err)
		}
		dir := p.cfg.Corpus.QrelsDir
		files, err := listFiles(dir)
		if err != nil {
			return err
		}

		checkDocs := true
		unknown := 0
		for _, name := range files {
			parsed, err := readQrels(filepath.Join(dir, name))
			if err != nil {
				log.Warn("qrels file skipped", "file", name, "error", err)
				continue
			}
			queryID := htmldoc.QueryIDFromFilename(pattern, name)
			for _, j := range parsed {
				if checkDocs {
					ok, err := p.repo.HasDocument(ctx, j.DocID)
					switch {
					case err != nil:
						log.Warn("document check disabled", "error", err)
						checkDocs = false
					case !ok:
						unknown++
						log.Debug("judgment for unknown document", "query_id", queryID, "doc_id", j.DocID)
					}
				}
				judgments = append(judgments, store.Judgment{
					QueryID:   queryID,
					DocID:     j.DocID,
					Relevance: j.Relevance,
				})
			}
		}
		if unknown > 0 {
			log.Warn("judgments reference unindexed documents", "count", unknown)
		}
		if err := p.repo.SaveJudgments(ctx, judgments); err != nil {
			return err
		}
		span.SetAttr("judgments", len(judgments))
		log.Info("judgments loaded", "files", len(files), "judgments", len(judgments))
		return nil
	})
	return judgments, err
}

func readQrels(path string) ([]htmldoc.Judgment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return htmldoc.ParseQrels(f)
}

// Evaluate weights the stored index, ranks every stored query and measures
// the rankings against the stored judgments.
func (p *Pipeline) Evaluate(ctx context.Context) (*evaluation.Report, error) {
	var report *evaluation.Report
	err := p.stage(ctx, StageEvaluate, func(ctx context.Context, span *tracing.Span) error {
		log := logger.FromContext(ctx).With("component", "pipeline")
		idx, df, err := p.repo.LoadIndex(ctx)
		if err != nil {
			return err
		}
		weighter, err := weighting.New(p.cfg.Weighting)
		if err != nil {
			return err
		}
		norms, err := weighter.Apply(idx, df, idx.Len())
		if err != nil {
			return err
		}
		scorer, err := similarity.New(p.cfg.Similarity, idx, norms, df)
		if err != nil {
			return err
		}
		queries, err := p.repo.LoadQueries(ctx)
		if err != nil {
			return err
		}
		judgments, err := p.repo.LoadJudgments(ctx)
		if err != nil {
			return err
		}

		rank := func(_ context.Context, q evaluation.Query) ([]similarity.ScoredDoc, error) {
			return scorer.Rank(q.Terms), nil
		}
		var rc *cache.RankCache
		if p.cache != nil {
			rc = cache.New(p.cache, p.cfg.Redis.CacheTTL, p.optionsFingerprint(), cache.Generation(idx))
			rank = func(ctx context.Context, q evaluation.Query) ([]similarity.ScoredDoc, error) {
				ranked, _, err := rc.GetOrRank(ctx, q, func() ([]similarity.ScoredDoc, error) {
					return scorer.Rank(q.Terms), nil
				})
				return ranked, err
			}
		}

		report, err = evaluation.New(p.cfg.Evaluation, rank).Run(ctx, queries, judgments)
		if err != nil {
			return err
		}
		report.RunID = p.runID

		span.SetAttr("queries", len(report.Results))
		span.SetAttr("skipped", len(report.Skipped))
		if p.metrics != nil {
			p.metrics.QueriesEvaluated.Add(float64(len(report.Results)))
			p.metrics.QueriesSkipped.Add(float64(len(report.Skipped)))
			p.metrics.SetMeans(report.Summary.MeanPrecision, report.Summary.MeanRecall)
			if rc != nil {
				hits, misses := rc.Stats()
				p.metrics.CacheHits.Add(float64(hits))
				p.metrics.CacheMisses.Add(float64(misses))
			}
		}
		if p.publisher != nil {
			if err := p.publisher.Publish(ctx, report); err != nil {
				log.Error("report not published", "error", err)
			}
		}
		return nil
	})
	return report, err
}

// optionsFingerprint identifies the scoring configuration in cache keys.
func (p *Pipeline) optionsFingerprint() string {
	return fmt.Sprintf("w=%+v;s=%+v", p.cfg.Weighting, p.cfg.Similarity)
}

// listFiles returns the regular file names of dir in sorted order.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedInput, "reading directory %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
