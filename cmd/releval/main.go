package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/store"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("releval failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "releval",
		Short: "Relevance evaluation of TF-IDF retrieval over an HTML corpus",
		Long: `releval indexes a collection of HTML documents, loads queries and
relevance judgments, ranks every query with the configured weighting and
similarity, and reports precision, recall and the interpolated
precision/recall curve.

Run 'releval run' to execute every stage in order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "configs/development.yaml", "config file path")

	rootCmd.AddCommand(
		stageCmd("index", "Index the document collection into the store",
			func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.Index(ctx)
				return err
			}),
		stageCmd("queries", "Parse the queries file into the store",
			func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.LoadQueries(ctx)
				return err
			}),
		stageCmd("qrels", "Parse the relevance judgments into the store",
			func(ctx context.Context, p *pipeline.Pipeline, _ io.Writer) error {
				_, err := p.LoadJudgments(ctx)
				return err
			}),
		reportCmd("evaluate", "Rank the stored queries and report the measures",
			func(ctx context.Context, p *pipeline.Pipeline) (*evaluation.Report, error) {
				return p.Evaluate(ctx)
			}),
		reportCmd("run", "Execute every stage, then report the measures",
			func(ctx context.Context, p *pipeline.Pipeline) (*evaluation.Report, error) {
				return p.Run(ctx)
			}),
	)

	return rootCmd
}

type stageFunc func(ctx context.Context, p *pipeline.Pipeline, out io.Writer) error

func stageCmd(use, short string, fn stageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd, fn)
		},
	}
}

func reportCmd(use, short string, fn func(context.Context, *pipeline.Pipeline) (*evaluation.Report, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "text" && format != "json" {
				return apperrors.Newf(apperrors.ErrConfiguration, "unknown report format %q", format)
			}
			return withPipeline(cmd, func(ctx context.Context, p *pipeline.Pipeline, out io.Writer) error {
				report, err := fn(ctx, p)
				if err != nil {
					return err
				}
				if format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				return evaluation.WriteReport(out, report)
			})
		},
	}
	cmd.Flags().String("format", "text", "report format (text, json)")
	return cmd
}

// withPipeline loads the configuration, connects the enabled backends, runs
// fn and releases everything it opened.
func withPipeline(cmd *cobra.Command, fn stageFunc) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("close failed", "error", err)
			}
		}
	}()

	checker := health.NewChecker()
	st, err := openStore(ctx, cfg, checker)
	if err != nil {
		return err
	}
	closers = append(closers, st.Close)

	m := metrics.New()
	deps := pipeline.Deps{Store: st, Metrics: m}

	if cfg.Metrics.Enabled {
		shutdown, err := m.StartServer(cfg.Metrics.Port, checker)
		if err != nil {
			return err
		}
		closers = append(closers, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdown(shutdownCtx)
		})
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis, cfg.Retry)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		closers = append(closers, client.Close)
		checker.Register("redis", false, client.Ping)
		deps.Cache = client
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		closers = append(closers, producer.Close)
		deps.Sink = producer
	}

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		return err
	}
	slog.Info("releval starting",
		"command", cmd.Name(),
		"run_id", p.RunID(),
		"storage", cfg.Storage.Driver,
		"tf_mode", cfg.Weighting.TFMode,
		"similarity", cfg.Similarity.Mode,
	)
	return fn(ctx, p, cmd.OutOrStdout())
}

// openStore opens the configured table store and registers its probe.
func openStore(ctx context.Context, cfg *config.Config, checker *health.Checker) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		client, err := postgres.New(ctx, cfg.Postgres, cfg.Retry)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrStorage, "%v", err)
		}
		checker.Register("postgres", true, client.DB.PingContext)
		return store.NewSQLStore(client.DB, store.PostgresDialect, cfg.Indexer.BatchSize), nil
	case config.DriverMemory:
		slog.Warn("memory storage does not persist between commands")
		return store.NewMemoryStore(), nil
	default:
		client, err := sqlite.Open(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrStorage, "%v", err)
		}
		checker.Register("sqlite", true, client.DB.PingContext)
		return store.NewSQLStore(client.DB, store.SQLiteDialect, cfg.Indexer.BatchSize), nil
	}
}
