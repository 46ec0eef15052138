package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hyperjump/parts/internal/catalog"
	"github.com/hyperjump/parts/internal/cli"
	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/storage"
)

type commonFlags struct {
	config *string
	server *string
	output *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		config: fs.String("config", defaultConfigPath, "config file path (direct storage mode)"),
		server: fs.String("server", defaultServerURL, "server URL (empty = use direct storage when server is not running)"),
		output: fs.String("output", "text", "output format: text or json"),
	}
}

func (c *commonFlags) format() cli.OutputFormat {
	f, err := cli.ParseOutputFormat(*c.output)
	if err != nil {
		exitf("%v", err)
	}
	return f
}

// optional turns a negative "unset" flag value into nil.
func optional(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

type filterFlags struct {
	name, sku                    *string
	active, minWeight, maxWeight *int
}

func addFilterFlags(fs *flag.FlagSet) *filterFlags {
	return &filterFlags{
		name:      fs.String("name", "", "filter by name substring (case-insensitive)"),
		sku:       fs.String("sku", "", "filter by SKU prefix"),
		active:    fs.Int("active", -1, "filter by is_active (0 or 1)"),
		minWeight: fs.Int("min-weight", -1, "minimum weight in ounces"),
		maxWeight: fs.Int("max-weight", -1, "maximum weight in ounces"),
	}
}

func (f *filterFlags) filter() *models.ListFilter {
	return &models.ListFilter{
		Name:      *f.name,
		SKU:       *f.sku,
		IsActive:  optional(*f.active),
		MinWeight: optional(*f.minWeight),
		MaxWeight: optional(*f.maxWeight),
	}
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	common := addCommonFlags(fs)
	filters := addFilterFlags(fs)
	page := fs.Int("page", 1, "page number (1-based)")
	pageSize := fs.Int("page-size", 0, "parts per page (default from config)")
	all := fs.Bool("all", false, "print every page")
	_ = fs.Parse(args)

	format := common.format()
	filter := filters.filter()
	filter.Page = *page
	filter.PageSize = *pageSize

	if *common.server != "" {
		client := newAPIClient(*common.server)
		if *all {
			pages, total, err := client.AllPages(filter)
			if err != nil {
				exitf("List failed: %v", err)
			}
			writeOrExit(cli.WritePages(os.Stdout, pages, total, format))
			return
		}
		res, err := client.ListParts(filter)
		if err != nil {
			exitf("List failed: %v", err)
		}
		writeOrExit(cli.WritePartPage(os.Stdout, res, format))
		return
	}

	components, _ := openDirect(*common.config)
	defer components.Close()
	ctx := context.Background()
	if *all {
		pages, total, err := components.Catalog.Pages(ctx, filter)
		if err != nil {
			exitf("List failed: %v", err)
		}
		writeOrExit(cli.WritePages(os.Stdout, pages, total, format))
		return
	}
	res, err := components.Catalog.List(ctx, filter)
	if err != nil {
		exitf("List failed: %v", err)
	}
	writeOrExit(cli.WritePartPage(os.Stdout, res, format))
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	common := addCommonFlags(fs)
	sku := fs.String("sku", "", "look up by SKU instead of id")
	_ = fs.Parse(argsReorder(args))

	if *sku == "" && fs.NArg() != 1 {
		exitf("Usage: parts get [flags] <id>  or  parts get --sku <sku>")
	}
	format := common.format()

	var (
		part *models.Part
		err  error
	)
	if *common.server != "" {
		client := newAPIClient(*common.server)
		if *sku != "" {
			part, err = client.GetPartBySKU(*sku)
		} else {
			part, err = client.GetPart(fs.Arg(0))
		}
	} else {
		components, _ := openDirect(*common.config)
		defer components.Close()
		if *sku != "" {
			part, err = components.Catalog.GetBySKU(context.Background(), *sku)
		} else {
			part, err = components.Catalog.Get(context.Background(), fs.Arg(0))
		}
	}
	if err != nil {
		exitf("Get failed: %v", err)
	}
	writeOrExit(cli.WritePart(os.Stdout, part, format))
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	common := addCommonFlags(fs)
	name := fs.String("name", "", "part name (required)")
	sku := fs.String("sku", "", "unique SKU (required)")
	description := fs.String("description", "", "description")
	weight := fs.Int("weight", 0, "weight in ounces")
	active := fs.Int("active", 1, "is_active (0 or 1)")
	_ = fs.Parse(args)

	in := &models.PartInput{
		Name:         *name,
		SKU:          *sku,
		Description:  *description,
		WeightOunces: *weight,
		IsActive:     active,
	}
	format := common.format()

	var (
		part *models.Part
		err  error
	)
	if *common.server != "" {
		part, err = newAPIClient(*common.server).CreatePart(in)
	} else {
		components, _ := openDirect(*common.config)
		defer components.Close()
		part, err = components.Catalog.Create(context.Background(), in)
	}
	if err != nil {
		exitf("Create failed: %v", err)
	}
	writeOrExit(cli.WritePart(os.Stdout, part, format))
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	common := addCommonFlags(fs)
	_ = fs.Parse(argsReorder(args))
	if fs.NArg() != 1 {
		exitf("Usage: parts delete [flags] <id>")
	}
	id := fs.Arg(0)

	var err error
	if *common.server != "" {
		err = newAPIClient(*common.server).DeletePart(id)
	} else {
		components, _ := openDirect(*common.config)
		defer components.Close()
		err = components.Catalog.Delete(context.Background(), id)
	}
	if err != nil {
		exitf("Delete failed: %v", err)
	}
	fmt.Printf("Part deleted: %s\n", id)
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: parts search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Name matches rank above description matches; an exact SKU ranks highest.
When nothing matches as typed, the search is retried with typo tolerance
and "did you mean" suggestions are printed.

Examples:
  parts search heavy coil
  parts search --fuzzy nickle
  parts search --max-weight 10 spring
`)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 0, "number of results (default from config)")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	minWeight := fs.Int("min-weight", -1, "minimum weight in ounces")
	maxWeight := fs.Int("max-weight", -1, "maximum weight in ounces")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(args))

	queryStr := joinArgs(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := common.format()
	query := &models.SearchQuery{
		Query:     queryStr,
		Limit:     *limit,
		Fuzzy:     *fuzzy,
		MinWeight: optional(*minWeight),
		MaxWeight: optional(*maxWeight),
	}

	var (
		resp *models.SearchResponse
		err  error
	)
	if *common.server != "" {
		// Use HTTP API when server is running (avoids Bleve/SQLite lock conflict).
		resp, err = newAPIClient(*common.server).Search(query)
	} else {
		components, _ := openDirect(*common.config)
		defer components.Close()
		resp, err = components.Catalog.Search(context.Background(), query)
	}
	if err != nil {
		exitf("Search failed: %v", err)
	}
	writeOrExit(cli.WriteSearchResults(os.Stdout, resp, format))
}

func runWordFreq(args []string) {
	fs := flag.NewFlagSet("wordfreq", flag.ExitOnError)
	common := addCommonFlags(fs)
	filters := addFilterFlags(fs)
	id := fs.String("id", "", "count only this part's description")
	minLength := fs.Int("min-length", 0, "count words longer than this many characters (default from config)")
	topN := fs.Int("top-n", 0, "number of words to return (default from config)")
	_ = fs.Parse(args)

	format := common.format()
	filter := filters.filter()

	if *common.server != "" {
		counts, err := newAPIClient(*common.server).WordFrequency(*id, filter, *minLength, *topN)
		if err != nil {
			exitf("Word frequency failed: %v", err)
		}
		writeOrExit(cli.WriteWordCounts(os.Stdout, counts, format))
		return
	}
	components, _ := openDirect(*common.config)
	defer components.Close()
	counts, err := components.Catalog.WordFrequency(context.Background(), &catalog.WordFrequencyRequest{
		ID:        *id,
		Filter:    filter,
		MinLength: *minLength,
		TopN:      *topN,
	})
	if err != nil {
		exitf("Word frequency failed: %v", err)
	}
	writeOrExit(cli.WriteWordCounts(os.Stdout, counts, format))
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	common := addCommonFlags(fs)
	formatFlag := fs.String("format", "", "file format: xlsx or csv (default from the file extension)")
	_ = fs.Parse(argsReorder(args))
	if fs.NArg() < 1 {
		exitf("Usage: parts import [flags] <file> [file...]")
	}
	out := common.format()

	var fileFormat importer.Format
	if *formatFlag != "" {
		f, err := importer.ParseFormat(*formatFlag)
		if err != nil {
			exitf("%v", err)
		}
		fileFormat = f
	}

	var components *Components
	if *common.server == "" {
		components, _ = openDirect(*common.config)
		defer components.Close()
	}
	failed := false
	for _, path := range fs.Args() {
		var (
			res *importer.Result
			err error
		)
		if components == nil {
			res, err = newAPIClient(*common.server).ImportFile(path, fileFormat)
			if res != nil {
				res.File = path
			}
		} else {
			res, err = importDirect(components.Importer, path, fileFormat)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import %s failed: %v\n", path, err)
			failed = true
			continue
		}
		writeOrExit(cli.WriteImportResult(os.Stdout, res, out))
	}
	if failed {
		os.Exit(1)
	}
}

func importDirect(imp *importer.Importer, path string, format importer.Format) (*importer.Result, error) {
	if format == "" {
		return imp.ImportFile(context.Background(), path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := imp.Import(context.Background(), f, format)
	if res != nil {
		res.File = path
	}
	return res, err
}

func runImportDir(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: parts import-dir <add|remove|list> [path]")
		fmt.Println("  parts import-dir add <path>     Watch a directory for .xlsx/.csv files")
		fmt.Println("  parts import-dir remove <path>  Stop watching a directory")
		fmt.Println("  parts import-dir list           List watched directories")
		os.Exit(1)
	}
	sub := args[0]
	fs := flag.NewFlagSet("import-dir", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	noSync := fs.Bool("no-sync", false, "do not import files already in the directory")
	_ = fs.Parse(argsReorder(args[1:]))
	client := newAPIClient(*serverURL)

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			exitf("Usage: parts import-dir add <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := client.AddImportDirectory(path, !*noSync); err != nil {
			exitf("Add failed: %v", err)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			exitf("Usage: parts import-dir remove <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := client.RemoveImportDirectory(path); err != nil {
			exitf("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		dirs, err := client.ImportDirectories()
		if err != nil {
			exitf("List failed: %v", err)
		}
		for _, d := range dirs {
			fmt.Println(d)
		}
	default:
		exitf("Unknown import-dir subcommand: %s", sub)
	}
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	common := addCommonFlags(fs)
	count := fs.Int("count", catalog.DefaultSeedCount, "number of parts to create")
	seed := fs.Int64("seed", 0, "random seed (0 = time based)")
	_ = fs.Parse(args)

	seeder := catalog.NewSeeder(*seed)
	var (
		created int
		err     error
	)
	if *common.server != "" {
		created, err = seedViaHTTP(newAPIClient(*common.server), *count, seeder)
	} else {
		components, _ := openDirect(*common.config)
		defer components.Close()
		created, err = components.Catalog.Seed(context.Background(), *count, seeder)
	}
	if err != nil {
		exitf("Seed failed after %d parts: %v", created, err)
	}
	fmt.Printf("Seeded %d parts\n", created)
}

// seedViaHTTP creates n generated parts through the API, regenerating on SKU conflicts.
func seedViaHTTP(client *apiClient, n int, seeder *catalog.Seeder) (int, error) {
	if n <= 0 {
		n = catalog.DefaultSeedCount
	}
	created := 0
	for created < n {
		_, err := client.CreatePart(seeder.Input())
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func runReindex(args []string) {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)

	components, _ := openDirect(*configPath)
	defer components.Close()
	n, err := components.Catalog.Reindex(context.Background())
	if err != nil {
		exitf("Reindex failed: %v", err)
	}
	fmt.Printf("Reindexed %d parts\n", n)
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	common := addCommonFlags(fs)
	_ = fs.Parse(args)
	format := common.format()

	var status map[string]interface{}
	if *common.server != "" {
		s, err := newAPIClient(*common.server).Status()
		if err != nil {
			exitf("Status failed: %v", err)
		}
		status = s
	} else {
		components, cfg := openDirect(*common.config)
		defer components.Close()
		s, err := directStatus(context.Background(), components.Catalog, cfg)
		if err != nil {
			exitf("Status failed: %v", err)
		}
		status = s
	}
	writeOrExit(cli.WriteStatus(os.Stdout, status, format))
}

// directStatus builds the same document as GET /api/v1/status without a server.
func directStatus(ctx context.Context, cat *catalog.Service, cfg *config.Config) (map[string]interface{}, error) {
	stats, err := cat.Stats(ctx)
	if err != nil {
		return nil, err
	}
	status := map[string]interface{}{
		"parts": stats,
		"config": map[string]interface{}{
			"database_path":    cfg.Storage.DatabasePath,
			"bleve_index_path": cfg.Storage.BleveIndexPath,
			"page_size":        cfg.Paging.PageSize,
			"max_page_size":    cfg.Paging.MaxPageSize,
		},
	}
	if usage, err := storage.MeasureDiskUsage(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
		status["disk_usage"] = usage
	}
	// Round-trip through JSON so nested values render the same as a server response.
	b, err := json.Marshal(status)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeOrExit(err error) {
	if err != nil {
		exitf("Output failed: %v", err)
	}
}
