package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/basicsite/internal/flagx"
	"github.com/dmitrijs2005/basicsite/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both strings such as "1h" and integer nanoseconds (see timex.Duration).
// Zero values leave the current Config field untouched; InsecureCookies is a
// pointer so an explicit false can still override.
type JsonConfig struct {
	HTTPAddr          string         `json:"http_addr"`
	DatabaseDriver    string         `json:"database_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	MaxOpenConns      int            `json:"max_open_conns"`
	MaxIdleConns      int            `json:"max_idle_conns"`
	ConnMaxIdleTime   timex.Duration `json:"conn_max_idle_time"`
	InsecureCookies   *bool          `json:"insecure_cookies"`
	SweepInterval     timex.Duration `json:"sweep_interval"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
	LogLevel          string         `json:"log_level"`
	Argon2Memory      uint32         `json:"argon2_memory"`
	Argon2Iterations  uint32         `json:"argon2_iterations"`
	Argon2Parallelism uint8          `json:"argon2_parallelism"`
}

// parseJson loads the file named by -c / -config, if any, and overlays its
// non-empty values onto config. An unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)

	if c.MaxOpenConns != 0 {
		config.MaxOpenConns = c.MaxOpenConns
	}
	if c.MaxIdleConns != 0 {
		config.MaxIdleConns = c.MaxIdleConns
	}
	if c.ConnMaxIdleTime.Duration != 0 {
		config.ConnMaxIdleTime = c.ConnMaxIdleTime.Duration
	}
	if c.InsecureCookies != nil {
		config.InsecureCookies = *c.InsecureCookies
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.Argon2Memory != 0 {
		config.Argon2Memory = c.Argon2Memory
	}
	if c.Argon2Iterations != 0 {
		config.Argon2Iterations = c.Argon2Iterations
	}
	if c.Argon2Parallelism != 0 {
		config.Argon2Parallelism = c.Argon2Parallelism
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
