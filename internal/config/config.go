// Package config loads codequiz settings from a TOML file, .env files and
// CODEQUIZ_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/abhisek/codequiz/internal/llm"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Redis    RedisConfig    `toml:"redis"`
	AMQP     AMQPConfig     `toml:"amqp"`
	Practice PracticeConfig `toml:"practice"`
	Log      LogConfig      `toml:"log"`
	LLM      llm.Config     `toml:"llm"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// JWTSecret enables HS256 bearer authentication. When empty the user
	// is taken from the X-User-ID header.
	JWTSecret string `toml:"jwt_secret"`

	CORSOrigins []string `toml:"cors_origins"`

	// QuestionRetention is how long issued questions are kept.
	QuestionRetention time.Duration `toml:"question_retention"`

	// PruneInterval is how often the server prunes old questions. Zero
	// disables the background pruner.
	PruneInterval time.Duration `toml:"prune_interval"`
}

// StoreConfig selects the database. DSNs starting with postgres:// use
// Postgres; anything else is a SQLite path.
type StoreConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig enables Redis leaderboards and locks when URL is set.
type RedisConfig struct {
	URL      string        `toml:"url"`
	LockTTL  time.Duration `toml:"lock_ttl"`
	LockWait time.Duration `toml:"lock_wait"`
}

// AMQPConfig enables event publishing when URL is set.
type AMQPConfig struct {
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

// PracticeConfig tunes question generation.
type PracticeConfig struct {
	DefaultLanguage   string `toml:"default_language"`
	MaxPriorQuestions int    `toml:"max_prior_questions"`
	GenerateAttempts  int    `toml:"generate_attempts"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			QuestionRetention: 24 * time.Hour,
			PruneInterval:     time.Hour,
		},
		Redis: RedisConfig{
			LockTTL:  10 * time.Second,
			LockWait: 5 * time.Second,
		},
		Practice: PracticeConfig{
			DefaultLanguage:   "go",
			MaxPriorQuestions: 10,
			GenerateAttempts:  3,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		LLM: llm.DefaultConfig(),
	}
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultPath returns the default TOML config path.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "codequiz", "config.toml")
}

// Load builds the configuration. path may be empty to use DefaultPath; a
// missing file is not an error. envFiles are loaded with godotenv before
// the environment is read and never override variables already set.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if err := decodeFile(path, &cfg); err != nil {
		return Config{}, err
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config: %w", err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overlays CODEQUIZ_* environment variables.
func (c *Config) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString(&c.Server.Addr, "CODEQUIZ_ADDR")
	setString(&c.Server.JWTSecret, "CODEQUIZ_JWT_SECRET")
	if v := os.Getenv("CODEQUIZ_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = strings.Split(v, ",")
	}
	setDuration(&c.Server.QuestionRetention, "CODEQUIZ_QUESTION_RETENTION")
	setDuration(&c.Server.PruneInterval, "CODEQUIZ_PRUNE_INTERVAL")

	setString(&c.Store.DSN, "CODEQUIZ_DB")
	setString(&c.Redis.URL, "CODEQUIZ_REDIS_URL")
	setString(&c.AMQP.URL, "CODEQUIZ_AMQP_URL")
	setString(&c.AMQP.Exchange, "CODEQUIZ_AMQP_EXCHANGE")
	setString(&c.Practice.DefaultLanguage, "CODEQUIZ_DEFAULT_LANGUAGE")
	setString(&c.Log.Level, "CODEQUIZ_LOG_LEVEL")
	setString(&c.Log.Format, "CODEQUIZ_LOG_FORMAT")

	c.LLM.ApplyEnv()
}

// Validate checks settings that cannot be defaulted.
func (c Config) Validate() error {
	if c.Server.QuestionRetention <= 0 {
		return fmt.Errorf("server.question_retention must be positive")
	}
	if c.Practice.GenerateAttempts < 1 {
		return fmt.Errorf("practice.generate_attempts must be at least 1")
	}
	if c.Redis.URL != "" && (c.Redis.LockTTL <= 0 || c.Redis.LockWait <= 0) {
		return fmt.Errorf("redis lock_ttl and lock_wait must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
