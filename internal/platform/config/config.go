package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries everything main needs to wire the process. Values come
// from environment variables; defaults suit local development.
type Config struct {
	Server    Server
	Postgres  Postgres
	Redis     Redis
	Kafka     Kafka
	Deadline  Deadline
	LogLevel  string
	LogFormat string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres captures the database connection and migration source. An empty
// ConnString selects the in-memory stores.
type Postgres struct {
	ConnString    string
	MigrationsURL string
}

// Redis captures the lock backend. An empty URL disables distributed
// locking (single-instance deployments).
type Redis struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the state-change notification sink. Empty brokers fall
// back to the logging dispatcher.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Deadline configures the scheduled re-evaluation job.
type Deadline struct {
	CronSpec    string
	Retries     int
	LockTTL     time.Duration
	Parallelism int
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("POSTGRES_CONN", "")
	v.SetDefault("MIGRATION_URL", "file://migrations")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "tender.lot-state-changes")
	v.SetDefault("DEADLINE_CRON", "*/5 * * * *")
	v.SetDefault("JOB_RETRIES", 2)
	v.SetDefault("JOB_LOCK_TTL", "4m")
	v.SetDefault("JOB_PARALLELISM", 4)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	cfg := &Config{
		Server: Server{
			Addr:            v.GetString("SERVER_ADDRESS"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Postgres: Postgres{
			ConnString:    v.GetString("POSTGRES_CONN"),
			MigrationsURL: v.GetString("MIGRATION_URL"),
		},
		Redis: Redis{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Kafka: Kafka{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Deadline: Deadline{
			CronSpec:    v.GetString("DEADLINE_CRON"),
			Retries:     v.GetInt("JOB_RETRIES"),
			LockTTL:     v.GetDuration("JOB_LOCK_TTL"),
			Parallelism: v.GetInt("JOB_PARALLELISM"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if cfg.Deadline.Retries < 0 {
		return nil, fmt.Errorf("JOB_RETRIES must not be negative, got %d", cfg.Deadline.Retries)
	}
	if cfg.Deadline.Parallelism < 1 {
		return nil, fmt.Errorf("JOB_PARALLELISM must be at least 1, got %d", cfg.Deadline.Parallelism)
	}
	return cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
