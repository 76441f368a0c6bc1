// Package config reads the ledger settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvStore        = "LEDGER_STORE"
	EnvKafkaBrokers = "LEDGER_KAFKA_BROKERS"
	EnvKafkaTopic   = "LEDGER_KAFKA_TOPIC"
	EnvHTTPAddr     = "LEDGER_HTTP_ADDR"
	EnvLogLevel     = "LEDGER_LOG_LEVEL"
)

// Defaults.
const (
	DefaultStore      = "financial_records.csv"
	DefaultKafkaTopic = "ledger_records"
	DefaultHTTPAddr   = ":8080"
	DefaultLogLevel   = "info"
)

type Config struct {
	Store        string   // store identifier, see storage.Open
	KafkaBrokers []string // empty disables event publishing
	KafkaTopic   string
	HTTPAddr     string
	LogLevel     string
}

// Load reads the given .env files (".env" when none) into the environment,
// without overriding variables already set, and returns the resulting
// configuration. Missing .env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s file: %w", f, err)
		}
	}
	return FromEnv(), nil
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() Config {
	return Config{
		Store:        getenv(EnvStore, DefaultStore),
		KafkaBrokers: splitList(os.Getenv(EnvKafkaBrokers)),
		KafkaTopic:   getenv(EnvKafkaTopic, DefaultKafkaTopic),
		HTTPAddr:     getenv(EnvHTTPAddr, DefaultHTTPAddr),
		LogLevel:     getenv(EnvLogLevel, DefaultLogLevel),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
