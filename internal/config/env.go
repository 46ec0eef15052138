package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables that override file values. A .env file in the working
// directory is loaded into the environment by the CLI before ApplyEnv runs.
const (
	EnvHost         = "PARTS_HOST"
	EnvPort         = "PARTS_PORT"
	EnvDatabasePath = "PARTS_DATABASE_PATH"
	EnvIndexPath    = "PARTS_BLEVE_INDEX_PATH"
	EnvPageSize     = "PARTS_PAGE_SIZE"
	EnvDebug        = "PARTS_DEBUG"
)

// ApplyEnv overrides cfg with any PARTS_* variables that are set.
// Unparseable numeric values are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v, ok := envInt(EnvPort); ok {
		cfg.Server.Port = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if v := os.Getenv(EnvIndexPath); v != "" {
		cfg.Storage.BleveIndexPath = v
	}
	if v, ok := envInt(EnvPageSize); ok && v > 0 {
		cfg.Paging.PageSize = v
		if cfg.Paging.MaxPageSize < v {
			cfg.Paging.MaxPageSize = v
		}
	}
	if v := strings.ToLower(os.Getenv(EnvDebug)); v != "" {
		cfg.Debug = v == "1" || v == "true" || v == "yes"
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
