package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/domain"
	"nf-quiz-service/pkg/validator"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "dev-only-secret-change-me"

type Config struct {
	Env      string         `mapstructure:"env" validate:"oneof=development production test"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Bank     BankConfig     `mapstructure:"bank"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps" validate:"min=0"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" validate:"min=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// BankConfig selects where the question bank is read from and how long it is cached.
// Source "db" reads the seeded tables, "file" serves a YAML seed file directly.
type BankConfig struct {
	Source string `mapstructure:"source" validate:"oneof=db file"`
	File   string `mapstructure:"file" validate:"required_if=Source file"`
	TTL    string `mapstructure:"ttl"`
}

// RedisConfig enables the shared bank cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
	TTL      string `mapstructure:"ttl"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" validate:"required,min=8"`
	TTL    time.Duration `mapstructure:"ttl" validate:"min=1m"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

type QuizConfig struct {
	Strata         []domain.Stratum     `mapstructure:"strata" validate:"required,min=1,unique=Level,dive"`
	PassThreshold  float64              `mapstructure:"pass_threshold" validate:"min=0,max=100"`
	Concepts       []string             `mapstructure:"concepts" validate:"required,min=1,dive,required"`
	MasteryScope   string               `mapstructure:"mastery_scope" validate:"oneof=attempt cumulative"`
	Mastery        MasteryConfig        `mapstructure:"mastery"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

type MasteryConfig struct {
	MinResponses  int     `mapstructure:"min_responses" validate:"min=1"`
	MinAccuracy   float64 `mapstructure:"min_accuracy" validate:"min=0,max=100"`
	MaxAvgSeconds float64 `mapstructure:"max_avg_seconds" validate:"gt=0"`
}

type RecommendationConfig struct {
	MinAccuracy   float64 `mapstructure:"min_accuracy" validate:"min=0,max=100"`
	MaxAvgSeconds float64 `mapstructure:"max_avg_seconds" validate:"gt=0"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"env":             "APP_ENV",
	"server.port":     "PORT",
	"database.driver": "DATABASE_DRIVER",
	"database.dsn":    "DATABASE_DSN",
	"bank.source":     "BANK_SOURCE",
	"bank.file":       "BANK_FILE",
	"redis.addr":      "REDIS_ADDR",
	"redis.password":  "REDIS_PASSWORD",
	"jwt.secret":      "JWT_SECRET",
	"log.level":       "LOG_LEVEL",
	"log.file":        "LOG_FILE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:nfquiz.db")

	v.SetDefault("bank.source", "db")
	v.SetDefault("bank.ttl", "10m")
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("jwt.secret", devJWTSecret)
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("quiz.strata", []map[string]interface{}{
		{"level": "FD", "count": 3},
		{"level": "1NF", "count": 3},
		{"level": "2NF", "count": 2},
		{"level": "3NF", "count": 2},
	})
	v.SetDefault("quiz.pass_threshold", 70.0)
	v.SetDefault("quiz.concepts", []string{
		"Functional Dependency",
		"Atomic Values",
		"Partial Dependency",
		"Transitive Dependency",
	})
	v.SetDefault("quiz.mastery_scope", "cumulative")
	v.SetDefault("quiz.mastery.min_responses", 3)
	v.SetDefault("quiz.mastery.min_accuracy", 80.0)
	v.SetDefault("quiz.mastery.max_avg_seconds", 20.0)
	v.SetDefault("quiz.recommendation.min_accuracy", 70.0)
	v.SetDefault("quiz.recommendation.max_avg_seconds", 20.0)
}

// Load builds the configuration from defaults, an optional YAML file at path, a .env file
// and environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	for i := range cfg.Quiz.Strata {
		cfg.Quiz.Strata[i].Level = domain.Level(strings.ToUpper(string(cfg.Quiz.Strata[i].Level)))
	}

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Quiz.Rules().Validate(); err != nil {
		return nil, fmt.Errorf("invalid quiz rules: %w", err)
	}
	if cfg.Env == "production" && cfg.JWT.Secret == devJWTSecret {
		return nil, errors.New("jwt.secret must be set in production")
	}
	return &cfg, nil
}

// Rules converts the quiz section into the rules used by the quiz service.
func (q QuizConfig) Rules() app.QuizConfig {
	strata := make(domain.Strata, len(q.Strata))
	copy(strata, q.Strata)
	concepts := make([]string, len(q.Concepts))
	copy(concepts, q.Concepts)
	return app.QuizConfig{
		Strata:        strata,
		PassThreshold: q.PassThreshold,
		Concepts:      concepts,
		MasteryScope:  q.MasteryScope,
		Mastery: app.MasteryRule{
			MinResponses:  q.Mastery.MinResponses,
			MinAccuracy:   q.Mastery.MinAccuracy,
			MaxAvgSeconds: q.Mastery.MaxAvgSeconds,
		},
		Recommendation: app.RecommendationRule{
			MinAccuracy:   q.Recommendation.MinAccuracy,
			MaxAvgSeconds: q.Recommendation.MaxAvgSeconds,
		},
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
