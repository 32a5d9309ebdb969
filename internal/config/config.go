package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSettlementAddress receives payments for rooms whose owner address
// fails the settlement network's format check.
const DefaultSettlementAddress = "GAIH3ULLFQ4DGSECF2AR555KZ4KNDGEKN4AFI4SU2M7B43MGK3QJZNSR"

type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	KVBackend     string
	KVNamespace   string
	DBSource      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SettlementURL     string
	SettlementTimeout time.Duration
	DefaultAddress    string
	MemoMaxBytes      int
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getenv("SERVER_PORT", "8080"),
		Env:            getenv("ENVIRONMENT", "development"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "json"),
		KVBackend:      getenv("KV_BACKEND", "memory"),
		KVNamespace:    getenv("KV_NAMESPACE", "roomledger"),
		DBSource:       os.Getenv("DB_SOURCE"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		SettlementURL:  os.Getenv("SETTLEMENT_URL"),
		DefaultAddress: getenv("DEFAULT_SETTLEMENT_ADDRESS", DefaultSettlementAddress),
	}

	var err error
	if cfg.RedisDB, err = getint("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.MemoMaxBytes, err = getint("MEMO_MAX_BYTES", 28); err != nil {
		return nil, err
	}
	if cfg.MemoMaxBytes <= 0 {
		return nil, fmt.Errorf("MEMO_MAX_BYTES must be positive, got %d", cfg.MemoMaxBytes)
	}

	timeout := getenv("SETTLEMENT_TIMEOUT", "15s")
	if cfg.SettlementTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_TIMEOUT %q: %w", timeout, err)
	}

	switch cfg.KVBackend {
	case "memory":
	case "postgres":
		if cfg.DBSource == "" {
			return nil, fmt.Errorf("DB_SOURCE environment variable is required for the postgres backend")
		}
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR environment variable is required for the redis backend")
		}
	default:
		return nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KVBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
