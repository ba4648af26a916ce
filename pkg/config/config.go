// Package config loads and validates evaluation configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Eval, Scorer, Postgres, Kafka, Redis, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Eval     EvalConfig     `yaml:"eval"`
	Scorer   ScorerConfig   `yaml:"scorer"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// EvalConfig holds the per-run evaluation defaults. Command-line flags take
// precedence over these values.
type EvalConfig struct {
	OutputDir string `yaml:"outputDir"`
	NLine     int    `yaml:"nLine"`
	SystemID  string `yaml:"systemID"`
	Encoding  string `yaml:"encoding"`
}

// ScorerConfig controls how the external scoring scripts are launched.
type ScorerConfig struct {
	Command          []string      `yaml:"command"`
	MultiBleuCommand []string      `yaml:"multiBleuCommand"`
	Timeout          time.Duration `yaml:"timeout"`
	WorkDir          string        `yaml:"workDir"`
}

// PostgresConfig holds PostgreSQL connection parameters for the result
// history sink.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings for result events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig holds Redis connection and leaderboard parameters.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	TextfilePath string `yaml:"textfilePath"`
}

// Load reads a YAML config file (if provided), loads a .env file from the
// working directory when one exists, and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	_ = godotenv.Load()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate reports the first configuration value that would make an
// evaluation run impossible.
func (c *Config) Validate() error {
	if len(c.Scorer.Command) == 0 {
		return fmt.Errorf("scorer.command must not be empty")
	}
	if len(c.Scorer.MultiBleuCommand) == 0 {
		return fmt.Errorf("scorer.multiBleuCommand must not be empty")
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("scorer.timeout must be positive, got %v", c.Scorer.Timeout)
	}
	if c.Eval.NLine < 0 {
		return fmt.Errorf("eval.nLine must not be negative, got %d", c.Eval.NLine)
	}
	if c.Eval.OutputDir == "" {
		return fmt.Errorf("eval.outputDir must not be empty")
	}
	switch strings.ToLower(strings.ReplaceAll(c.Eval.Encoding, "-", "")) {
	case "utf8":
	default:
		return fmt.Errorf("eval.encoding %q is not supported (only utf-8)", c.Eval.Encoding)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka sink enabled without brokers or topic")
	}
	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		return fmt.Errorf("metrics enabled without textfilePath")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Eval: EvalConfig{
			OutputDir: "temp",
			SystemID:  "unnamed",
			Encoding:  "utf-8",
		},
		Scorer: ScorerConfig{
			Command:          []string{"perl", "mteval-v14c.pl"},
			MultiBleuCommand: []string{"perl", "multi-bleu.perl"},
			Timeout:          10 * time.Minute,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "nlgmetrics",
			User:            "nlgmetrics",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "eval-results",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  4,
			KeyPrefix: "nlgeval:",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			TextfilePath: "nlgeval.prom",
		},
	}
}

// applyEnvOverrides reads NLG_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NLG_EVAL_OUTPUT_DIR"); v != "" {
		cfg.Eval.OutputDir = v
	}
	if v := os.Getenv("NLG_EVAL_N_LINE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Eval.NLine = n
		}
	}
	if v := os.Getenv("NLG_EVAL_SYSTEM_ID"); v != "" {
		cfg.Eval.SystemID = v
	}
	if v := os.Getenv("NLG_SCORER_COMMAND"); v != "" {
		cfg.Scorer.Command = strings.Fields(v)
	}
	if v := os.Getenv("NLG_SCORER_MULTI_BLEU_COMMAND"); v != "" {
		cfg.Scorer.MultiBleuCommand = strings.Fields(v)
	}
	if v := os.Getenv("NLG_SCORER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scorer.Timeout = d
		}
	}
	if v := os.Getenv("NLG_SCORER_WORK_DIR"); v != "" {
		cfg.Scorer.WorkDir = v
	}
	if v := os.Getenv("NLG_POSTGRES_ENABLED"); v != "" {
		cfg.Postgres.Enabled = parseBool(v, cfg.Postgres.Enabled)
	}
	if v := os.Getenv("NLG_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("NLG_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("NLG_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("NLG_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("NLG_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("NLG_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("NLG_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v, cfg.Kafka.Enabled)
	}
	if v := os.Getenv("NLG_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("NLG_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("NLG_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v, cfg.Redis.Enabled)
	}
	if v := os.Getenv("NLG_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NLG_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("NLG_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NLG_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("NLG_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v, cfg.Metrics.Enabled)
	}
	if v := os.Getenv("NLG_METRICS_TEXTFILE_PATH"); v != "" {
		cfg.Metrics.TextfilePath = v
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
