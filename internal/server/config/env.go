package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHTTPAddr        = "HTTP_ADDR"
	EnvDatabaseDriver  = "DATABASE_DRIVER"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvMaxOpenConns    = "DATABASE_MAX_OPEN_CONNS"
	EnvMaxIdleConns    = "DATABASE_MAX_IDLE_CONNS"
	EnvInsecureCookies = "INSECURE_COOKIES"
	EnvSweepInterval   = "SESSION_SWEEP_INTERVAL"
	EnvLogLevel        = "LOG_LEVEL"
)

// dotenvFiles are loaded, if present, before the environment is read.
// Variables already set in the process environment win.
var dotenvFiles = []string{".env"}

// parseEnv overlays Config with values from .env files and the process
// environment. Unset or empty variables leave the current value alone.
// Malformed numbers or durations panic, matching the other layers.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			panic(fmt.Errorf("load %s: %w", f, err))
		}
	}

	if v := os.Getenv(EnvHTTPAddr); v != "" {
		config.HTTPAddr = v
	}
	if v := os.Getenv(EnvDatabaseDriver); v != "" {
		config.DatabaseDriver = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv(EnvMaxOpenConns); v != "" {
		config.MaxOpenConns = mustAtoi(EnvMaxOpenConns, v)
	}
	if v := os.Getenv(EnvMaxIdleConns); v != "" {
		config.MaxIdleConns = mustAtoi(EnvMaxIdleConns, v)
	}
	if v := os.Getenv(EnvInsecureCookies); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvInsecureCookies, err))
		}
		config.InsecureCookies = b
	}
	if v := os.Getenv(EnvSweepInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s: %w", EnvSweepInterval, err))
		}
		config.SweepInterval = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = v
	}
}

func mustAtoi(name, v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", name, err))
	}
	return n
}
