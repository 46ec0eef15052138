// Package main is the parts CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/catalog"
	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/keyword"
	"github.com/hyperjump/parts/internal/server"
	"github.com/hyperjump/parts/internal/storage"
	"github.com/hyperjump/parts/internal/watcher"
	"github.com/hyperjump/parts/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/parts/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present, and a missing default file falls back to built-in
// defaults. PARTS_* environment variables override the result.
// Returns the config and the path that was actually loaded ("" when none was).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				config.ApplyEnv(cfg)
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := config.Default()
			config.ApplyEnv(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	config.ApplyEnv(cfg)
	return cfg, path, nil
}

func main() {
	// A missing .env is fine; variables may come from the real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]
	switch command {
	case "server":
		runServer(args)
	case "list":
		runList(args)
	case "get":
		runGet(args)
	case "create":
		runCreate(args)
	case "delete":
		runDelete(args)
	case "search":
		runSearch(args)
	case "wordfreq":
		runWordFreq(args)
	case "import":
		runImport(args)
	case "import-dir":
		runImportDir(args)
	case "seed":
		runSeed(args)
	case "reindex":
		runReindex(args)
	case "status":
		runStatus(args)
	case "version", "--version", "-v":
		fmt.Printf("parts version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer(args []string) {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (requests, imports, directory changes)")
	_ = fs.Parse(args)

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rebuildIndexIfEmpty(ctx, components.Catalog, logger)

	watchSvc := watcher.New(
		components.Importer,
		cfg.Import.Directories,
		cfg.Import.Extensions,
		cfg.Import.RecursiveOrDefault(),
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watchSvc.Stop()
	watchSvc.SyncExistingFiles()

	opts := []server.Option{server.WithWatcher(watchSvc)}
	if resolvedConfigPath != "" {
		opts = append(opts, server.WithConfigPath(resolvedConfigPath))
	}
	srv := server.NewServer(components.Catalog, components.Importer, cfg, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// rebuildIndexIfEmpty repopulates the search index when it was deleted but the database still
// holds parts.
func rebuildIndexIfEmpty(ctx context.Context, cat *catalog.Service, logger *zap.Logger) {
	stats, err := cat.Stats(ctx)
	if err != nil {
		logger.Warn("index check skipped", zap.Error(err))
		return
	}
	if stats.IndexedParts > 0 || stats.TotalParts == 0 {
		return
	}
	n, err := cat.Reindex(ctx)
	if err != nil {
		logger.Warn("index rebuild failed", zap.Error(err))
		return
	}
	logger.Info("index rebuilt", zap.Int("parts", n))
}

// Components holds initialized services for server and direct mode.
type Components struct {
	Storage  storage.Storage
	Index    keyword.Index
	Catalog  *catalog.Service
	Importer *importer.Importer
}

func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	cat := catalog.New(store, index, cfg, catalog.WithLogger(logger))
	return &Components{
		Storage:  store,
		Index:    index,
		Catalog:  cat,
		Importer: importer.New(cat, importer.WithLogger(logger)),
	}, nil
}

// openDirect loads config and opens storage for commands that run without a server.
// The caller must Close the result.
func openDirect(configPath string) (*Components, *config.Config) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		exitf("Failed to load config: %v", err)
	}
	logger := zap.NewNop()
	if cfg.Debug {
		if logger, err = utils.NewLogger(true); err != nil {
			exitf("Failed to create logger: %v", err)
		}
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		exitf("Failed to initialize (is the server running? use --server): %v", err)
	}
	return components, cfg
}

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at
// the first non-flag argument, so "parts search washer --limit 5" would otherwise
// leave --limit unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// joinArgs joins all positional args with spaces so multi-word queries work the same
// with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func printUsage() {
	fmt.Println(`parts - Part inventory service

Usage:
  parts server [flags]              Start the HTTP server
  parts list [flags]                List parts one page at a time (--all for every page)
  parts get [flags] <id>            Show a part (--sku to look up by SKU)
  parts create [flags]              Create a part
  parts delete [flags] <id>         Delete a part
  parts search [flags] <query>      Full-text search over name, description and SKU
  parts wordfreq [flags]            Most frequent words in part descriptions
  parts import [flags] <file>       Import parts from an .xlsx or .csv file
  parts import-dir <add|remove|list> Manage watched import directories
  parts seed [flags]                Insert random sample parts
  parts reindex [flags]             Rebuild the search index from the database
  parts status [flags]              Show counts, configuration and disk usage
  parts version                     Show version
  parts help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/parts/config.yaml, or ./config.yaml)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage
                     access when the server is not running.
  --output string    Output format: text or json (default: text)

Environment:
  PARTS_HOST, PARTS_PORT, PARTS_DATABASE_PATH, PARTS_BLEVE_INDEX_PATH, PARTS_PAGE_SIZE, PARTS_DEBUG
  A .env file in the working directory is loaded first.

Examples:
  parts server
  parts list --page 2 --page-size 20
  parts list --all --active 1
  parts get --sku SDJDDH8223DHJ
  parts create --name "Heavy coil" --sku SDJDDH8223DHJ --weight 22
  parts search --fuzzy nickle spring
  parts wordfreq --top-n 10 --min-length 4
  parts import parts.xlsx
  parts import-dir add ~/parts-dropbox
  parts seed --count 1025`)
}
