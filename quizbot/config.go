package quizbot

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/session"
)

// Session and result backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// QuizConfig selects the question bank and the texts around it.
type QuizConfig struct {
	Title string `yaml:"title" envconfig:"QUIZ_TITLE"`
	// QuestionsFile is a YAML bank; empty uses the built-in Python bank.
	QuestionsFile string `yaml:"questions_file" envconfig:"QUIZ_QUESTIONS_FILE"`
	Welcome       string `yaml:"welcome"`
	// KeyboardColumns is the number of option buttons per keyboard row.
	KeyboardColumns int `yaml:"keyboard_columns"`
}

// SessionConfig selects where per-user quiz sessions live.
type SessionConfig struct {
	Backend    string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisURL   string `yaml:"redis_url" envconfig:"REDIS_URL"`
	Prefix     string `yaml:"prefix"`
	TTLMinutes int    `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// TTL returns the Redis key lifetime; zero keeps keys forever.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// ResultsConfig selects where finished attempts are kept for /top.
type ResultsConfig struct {
	Backend  string `yaml:"backend" envconfig:"RESULTS_BACKEND"`
	TopLimit int    `yaml:"top_limit"`
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Quiz     QuizConfig          `yaml:"quiz"`
	Session  SessionConfig       `yaml:"session"`
	Results  ResultsConfig       `yaml:"results"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// NeedsDatabase reports whether any backend is Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.Session.Backend == BackendPostgres || c.Results.Backend == BackendPostgres
}

// LoadConfig reads path, applies environment overrides and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	if cfg.Quiz.KeyboardColumns <= 0 {
		cfg.Quiz.KeyboardColumns = 2
	}
	cfg.Quiz.QuestionsFile = strings.TrimSpace(cfg.Quiz.QuestionsFile)

	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	switch cfg.Session.Backend {
	case "":
		cfg.Session.Backend = BackendMemory
	case BackendMemory, BackendPostgres:
	case BackendRedis:
		if strings.TrimSpace(cfg.Session.RedisURL) == "" {
			return fmt.Errorf("session.redis_url is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis, postgres", cfg.Session.Backend)
	}
	if cfg.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must be >= 0")
	}
	if cfg.Session.Prefix == "" {
		cfg.Session.Prefix = session.DefaultRedisPrefix
	}

	cfg.Results.Backend = strings.ToLower(strings.TrimSpace(cfg.Results.Backend))
	switch cfg.Results.Backend {
	case "":
		cfg.Results.Backend = BackendMemory
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("invalid results.backend %q; allowed: memory, postgres", cfg.Results.Backend)
	}
	if cfg.Results.TopLimit <= 0 {
		cfg.Results.TopLimit = 10
	}

	if cfg.NeedsDatabase() {
		if err := cfg.Database.Normalize(); err != nil {
			return err
		}
	}
	return nil
}
