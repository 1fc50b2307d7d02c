// Package publisher emits evaluation reports as events: one event per query
// result followed by one summary event, all keyed by run id so they land on
// the same partition in order.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/resilience"
)

const (
	EventQueryResult = "query_result"
	EventSummary     = "summary"
)

// Sink is the subset of the Kafka producer used here.
type Sink interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// ReportEvent is the JSON payload of every published event.
type ReportEvent struct {
	Type        string                  `json:"type"`
	RunID       string                  `json:"run_id"`
	Timestamp   time.Time               `json:"timestamp"`
	QueryResult *evaluation.QueryResult `json:"query_result,omitempty"`
	Summary     *evaluation.Summary     `json:"summary,omitempty"`
}

type Publisher struct {
	sink    Sink
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// New returns a publisher bounding each batch by timeout (0 for none).
func New(sink Sink, timeout time.Duration) *Publisher {
	return &Publisher{
		sink:    sink,
		timeout: timeout,
		now:     time.Now,
		logger:  slog.Default().With("component", "report-publisher"),
	}
}

// Events builds the events of report in publication order.
func (p *Publisher) Events(report *evaluation.Report) []kafka.Event {
	ts := p.now().UTC()
	events := make([]kafka.Event, 0, len(report.Results)+1)
	for i := range report.Results {
		events = append(events, kafka.Event{
			Key: report.RunID,
			Value: ReportEvent{
				Type:        EventQueryResult,
				RunID:       report.RunID,
				Timestamp:   ts,
				QueryResult: &report.Results[i],
			},
		})
	}
	summary := report.Summary
	events = append(events, kafka.Event{
		Key: report.RunID,
		Value: ReportEvent{
			Type:      EventSummary,
			RunID:     report.RunID,
			Timestamp: ts,
			Summary:   &summary,
		},
	})
	return events
}

// Publish sends every event of report in one batch.
func (p *Publisher) Publish(ctx context.Context, report *evaluation.Report) error {
	events := p.Events(report)
	err := resilience.WithTimeout(ctx, "publish report", p.timeout, func(ctx context.Context) error {
		return p.sink.PublishBatch(ctx, events)
	})
	if err != nil {
		return fmt.Errorf("publishing report %s: %w", report.RunID, err)
	}
	p.logger.Info("report published", "run_id", report.RunID, "events", len(events))
	return nil
}
