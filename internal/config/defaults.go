package config

import "github.com/hyperjump/parts/internal/paging"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 60
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/parts/data/db/parts.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/parts/data/indices/bleve"
	}
	if cfg.Paging.PageSize == 0 {
		cfg.Paging.PageSize = paging.DefaultPageSize
	}
	if cfg.Paging.MaxPageSize == 0 {
		cfg.Paging.MaxPageSize = 500
	}
	if cfg.Paging.MaxPageSize < cfg.Paging.PageSize {
		cfg.Paging.MaxPageSize = cfg.Paging.PageSize
	}
	if cfg.WordFrequency.MinLength == 0 {
		cfg.WordFrequency.MinLength = 3
	}
	if cfg.WordFrequency.TopN == 0 {
		cfg.WordFrequency.TopN = 5
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.Fuzziness == 0 {
		cfg.Search.Fuzziness = 2
	}
	if cfg.Search.NameBoost == 0 {
		cfg.Search.NameBoost = 3.0
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".xlsx", ".csv"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}
