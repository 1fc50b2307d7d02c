package index

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ExtractFunc produces the contribution of one document. An error marks the
// document as skipped; it never aborts the build.
type ExtractFunc func(ctx context.Context, docID string) (Contribution, error)

// BuildStats summarises one build.
type BuildStats struct {
	Indexed int
	Skipped []string
}

// Builder extracts documents in parallel and folds their contributions into
// one index through a single reducer goroutine.
type Builder struct {
	workers int
	extract ExtractFunc
	logger  *slog.Logger
}

func NewBuilder(workers int, extract ExtractFunc) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		workers: workers,
		extract: extract,
		logger:  slog.Default().With("component", "index-builder"),
	}
}

// Build indexes docIDs. Documents whose extraction fails are logged and left
// out; the build only fails when ctx is cancelled.
func (b *Builder) Build(ctx context.Context, docIDs []string) (*InvertedIndex, BuildStats, error) {
	idx := New()
	var stats BuildStats

	contributions := make(chan Contribution, b.workers)
	skipped := make(chan string, b.workers)
	reduced := make(chan struct{})

	go func() {
		defer close(reduced)
		for contributions != nil || skipped != nil {
			select {
			case c, ok := <-contributions:
				if !ok {
					contributions = nil
					continue
				}
				if err := idx.Add(c); err != nil {
					b.logger.Warn("document skipped", "doc_id", c.DocID, "error", err)
					stats.Skipped = append(stats.Skipped, c.DocID)
					continue
				}
				stats.Indexed++
			case id, ok := <-skipped:
				if !ok {
					skipped = nil
					continue
				}
				stats.Skipped = append(stats.Skipped, id)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, id := range docIDs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c, err := b.extract(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				b.logger.Warn("document skipped", "doc_id", id, "error", err)
				skipped <- id
				return nil
			}
			c.DocID = id
			contributions <- c
			return nil
		})
	}
	err := g.Wait()
	close(contributions)
	close(skipped)
	<-reduced

	if err != nil {
		return nil, stats, fmt.Errorf("building index: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, stats, fmt.Errorf("building index: %w", ctxErr)
	}
	b.logger.Info("index built",
		"documents", stats.Indexed,
		"skipped", len(stats.Skipped),
		"terms", len(idx.DocFreq()),
	)
	return idx, stats, nil
}
