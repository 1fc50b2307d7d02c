// Package config loads and validates the evaluation engine configuration from
// a YAML file with RELEVAL_* environment-variable overrides. The resulting
// Config is a plain value: every stage receives the section it needs by value
// and nothing reads process-wide flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

const envPrefix = "RELEVAL"

// Config is the top-level application configuration.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus" split_words:"true"`
	Extraction ExtractionConfig `yaml:"extraction" split_words:"true"`
	Weighting  WeightingConfig  `yaml:"weighting" split_words:"true"`
	Similarity SimilarityConfig `yaml:"similarity" split_words:"true"`
	Query      QueryConfig      `yaml:"query" split_words:"true"`
	Evaluation EvaluationConfig `yaml:"evaluation" split_words:"true"`
	Indexer    IndexerConfig    `yaml:"indexer" split_words:"true"`
	Storage    StorageConfig    `yaml:"storage" split_words:"true"`
	Postgres   PostgresConfig   `yaml:"postgres" split_words:"true"`
	Redis      RedisConfig      `yaml:"redis" split_words:"true"`
	Kafka      KafkaConfig      `yaml:"kafka" split_words:"true"`
	Retry      RetryConfig      `yaml:"retry" split_words:"true"`
	Logging    LoggingConfig    `yaml:"logging" split_words:"true"`
	Tracing    TracingConfig    `yaml:"tracing" split_words:"true"`
	Metrics    MetricsConfig    `yaml:"metrics" split_words:"true"`
}

// CorpusConfig locates the documents, the queries file and the relevance
// judgments on disk.
type CorpusConfig struct {
	DocumentsDir  string   `yaml:"documentsDir" split_words:"true"`
	QueriesFile   string   `yaml:"queriesFile" split_words:"true"`
	QrelsDir      string   `yaml:"qrelsDir" split_words:"true"`
	QrelPattern   string   `yaml:"qrelPattern" split_words:"true"`
	KeywordsLabel string   `yaml:"keywordsLabel" split_words:"true"`
	StopwordFiles []string `yaml:"stopwordFiles" split_words:"true"`
}

// ExtractionConfig controls term extraction: n-grams, structural weights and
// the stemming language.
type ExtractionConfig struct {
	NGramMax    int                `yaml:"nGramMax" split_words:"true"`
	NGramWeight float64            `yaml:"nGramWeight" split_words:"true"`
	TagWeights  bool               `yaml:"tagWeights" split_words:"true"`
	Language    string             `yaml:"language" split_words:"true"`
	TagScores   map[string]float64 `yaml:"tagScores" split_words:"true"`
}

type TFMode string

const (
	TFMultiply TFMode = "multiply"
	TFDivide   TFMode = "divide"
	TFLog      TFMode = "log"
)

// WeightingConfig selects the term-frequency formula.
type WeightingConfig struct {
	TFNormalized bool   `yaml:"tfNormalized" split_words:"true"`
	TFMode       TFMode `yaml:"tfMode" split_words:"true"`
}

type SimilarityMode string

const (
	SimilarityCosine  SimilarityMode = "cosine"
	SimilarityJaccard SimilarityMode = "jaccard"
	SimilarityDice    SimilarityMode = "dice"
	SimilarityNone    SimilarityMode = "none"
)

// SimilarityConfig selects the query/document similarity function and how the
// query vector is weighted.
type SimilarityConfig struct {
	Mode              SimilarityMode `yaml:"mode" split_words:"true"`
	StrictCosine      bool           `yaml:"strictCosine" split_words:"true"`
	UseIDFInQuery     bool           `yaml:"useIdfInQuery" split_words:"true"`
	UseSynonymWeights bool           `yaml:"useSynonymWeights" split_words:"true"`
	IncludeZeroScores bool           `yaml:"includeZeroScores" split_words:"true"`
}

type MergePolicy string

const (
	// MergeFirst keeps the first weight recorded for a term. Primary terms are
	// recorded before synonym groups, so they always keep weight 1.0.
	MergeFirst     MergePolicy = "first"
	MergeOverwrite MergePolicy = "overwrite"
	MergeSum       MergePolicy = "sum"
)

// QueryConfig controls query-side term weighting.
type QueryConfig struct {
	SynonymMerge   MergePolicy `yaml:"synonymMerge" split_words:"true"`
	SynonymDivisor float64     `yaml:"synonymDivisor" split_words:"true"`
}

// EvaluationConfig lists the rank cutoffs and recall levels reported.
type EvaluationConfig struct {
	Cutoffs      []int     `yaml:"cutoffs" split_words:"true"`
	RecallLevels []float64 `yaml:"recallLevels" split_words:"true"`
}

// IndexerConfig controls extraction parallelism and storage batch size.
type IndexerConfig struct {
	Workers   int `yaml:"workers" split_words:"true"`
	BatchSize int `yaml:"batchSize" split_words:"true"`
}

type StorageDriver string

const (
	DriverSQLite   StorageDriver = "sqlite"
	DriverPostgres StorageDriver = "postgres"
	DriverMemory   StorageDriver = "memory"
)

// StorageConfig selects the table store backend.
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver" split_words:"true"`
	Path   string        `yaml:"path" split_words:"true"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	Database        string        `yaml:"database" split_words:"true"`
	User            string        `yaml:"user" split_words:"true"`
	Password        string        `yaml:"password" split_words:"true"`
	SSLMode         string        `yaml:"sslMode" split_words:"true"`
	MaxOpenConns    int           `yaml:"maxOpenConns" split_words:"true"`
	MaxIdleConns    int           `yaml:"maxIdleConns" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" split_words:"true"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds the ranked-result cache connection.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" split_words:"true"`
	Addr     string        `yaml:"addr" split_words:"true"`
	Password string        `yaml:"password" split_words:"true"`
	DB       int           `yaml:"db" split_words:"true"`
	PoolSize int           `yaml:"poolSize" split_words:"true"`
	CacheTTL time.Duration `yaml:"cacheTTL" split_words:"true"`
}

// KafkaConfig holds the brokers and topic evaluation reports are published to.
type KafkaConfig struct {
	Enabled        bool          `yaml:"enabled" split_words:"true"`
	Brokers        []string      `yaml:"brokers" split_words:"true"`
	ReportTopic    string        `yaml:"reportTopic" split_words:"true"`
	PublishTimeout time.Duration `yaml:"publishTimeout" split_words:"true"`
}

// RetryConfig bounds connection attempts to external stores.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts" split_words:"true"`
	InitialDelay time.Duration `yaml:"initialDelay" split_words:"true"`
	MaxDelay     time.Duration `yaml:"maxDelay" split_words:"true"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
}

// TracingConfig toggles stage spans in the logs.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" split_words:"true"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" split_words:"true"`
	Port    int  `yaml:"port" split_words:"true"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Any invalid combination of formula
// flags is rejected here, before indexing begins.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration of the reference evaluation run.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			DocumentsDir:  "in/corpus-utf8",
			QueriesFile:   "in/requetes.html",
			QrelsDir:      "in/qrels",
			QrelPattern:   `qrel(Q\d+)`,
			KeywordsLabel: "mots clés",
		},
		Extraction: ExtractionConfig{
			NGramMax:    2,
			NGramWeight: 1.1,
			TagWeights:  true,
			Language:    "french",
		},
		Weighting: WeightingConfig{
			TFNormalized: true,
			TFMode:       TFLog,
		},
		Similarity: SimilarityConfig{
			Mode:              SimilarityCosine,
			UseSynonymWeights: true,
		},
		Query: QueryConfig{
			SynonymMerge:   MergeFirst,
			SynonymDivisor: 3,
		},
		Evaluation: EvaluationConfig{
			Cutoffs:      []int{5, 10, 25},
			RecallLevels: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		Indexer: IndexerConfig{
			Workers:   4,
			BatchSize: 1000,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "database.db",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "releval",
			User:            "releval",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:        []string{"localhost:9092"},
			ReportTopic:    "evaluation-reports",
			PublishTimeout: 10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Weighting.TFMode {
	case TFMultiply, TFDivide, TFLog:
	case "":
		return apperrors.New(apperrors.ErrConfiguration, "no tf mode selected (want multiply, divide or log)")
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown tf mode %q", c.Weighting.TFMode)
	}
	switch c.Similarity.Mode {
	case SimilarityCosine, SimilarityJaccard, SimilarityDice, SimilarityNone:
	case "":
		return apperrors.New(apperrors.ErrConfiguration, "no similarity mode selected (want cosine, jaccard, dice or none)")
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown similarity mode %q", c.Similarity.Mode)
	}
	switch c.Query.SynonymMerge {
	case MergeFirst, MergeOverwrite, MergeSum:
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown synonym merge policy %q", c.Query.SynonymMerge)
	}
	if c.Query.SynonymDivisor <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "synonym divisor must be positive, got %v", c.Query.SynonymDivisor)
	}
	if c.Extraction.NGramMax < 1 {
		return apperrors.Newf(apperrors.ErrConfiguration, "nGramMax must be at least 1, got %d", c.Extraction.NGramMax)
	}
	if c.Extraction.NGramWeight < 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "nGramWeight must not be negative, got %v", c.Extraction.NGramWeight)
	}
	if len(c.Evaluation.Cutoffs) == 0 {
		return apperrors.New(apperrors.ErrConfiguration, "at least one evaluation cutoff is required")
	}
	for _, k := range c.Evaluation.Cutoffs {
		if k <= 0 {
			return apperrors.Newf(apperrors.ErrConfiguration, "cutoff must be positive, got %d", k)
		}
	}
	for _, r := range c.Evaluation.RecallLevels {
		if r < 0 || r > 1 {
			return apperrors.Newf(apperrors.ErrConfiguration, "recall level %v outside [0,1]", r)
		}
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown storage driver %q", c.Storage.Driver)
	}
	if c.Indexer.BatchSize <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "indexer batch size must be positive, got %d", c.Indexer.BatchSize)
	}
	return nil
}
