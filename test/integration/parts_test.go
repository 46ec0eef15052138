// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/parts/internal/catalog"
	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/importer"
	"github.com/hyperjump/parts/internal/keyword"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/server"
	"github.com/hyperjump/parts/internal/storage"
	"github.com/hyperjump/parts/internal/watcher"
)

type stack struct {
	cfg     *config.Config
	store   *storage.SQLiteStorage
	index   *keyword.BleveIndex
	catalog *catalog.Service
	watch   *watcher.Watcher
	url     string
	dropDir string

	indexClosed bool
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(dir, "db", "parts.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "indices", "bleve")
	cfg.Paging.PageSize = 5
	dropDir := filepath.Join(dir, "dropbox")
	cfg.Import.Directories = []string{dropDir}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	require.NoError(t, err)

	cat := catalog.New(store, index, cfg)
	imp := importer.New(cat)
	w := watcher.New(imp, cfg.Import.Directories, cfg.Import.Extensions, cfg.Import.RecursiveOrDefault(),
		watcher.WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	srv := server.NewServer(cat, imp, cfg, nil, server.WithWatcher(w))
	ts := httptest.NewServer(srv.Handler())
	s := &stack{cfg: cfg, store: store, index: index, catalog: cat, watch: w, url: ts.URL, dropDir: dropDir}
	t.Cleanup(func() {
		ts.Close()
		cancel()
		w.Stop()
		_ = s.closeIndex()
		_ = store.Close()
	})
	return s
}

// closeIndex closes the Bleve index once; closing it twice panics.
func (s *stack) closeIndex() error {
	if s.indexClosed {
		return nil
	}
	s.indexClosed = true
	return s.index.Close()
}

func (s *stack) getJSON(t *testing.T, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(s.url + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *stack) postJSON(t *testing.T, path string, body, out interface{}) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.url+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestIntegration_PartLifecycle(t *testing.T) {
	s := newStack(t)

	var created models.Part
	status := s.postJSON(t, "/api/v1/parts", map[string]interface{}{
		"name":          "Heavy coil",
		"sku":           "SDJDDH8223DHJ",
		"description":   "Tightly wound nickel-gravy alloy spring",
		"weight_ounces": 22,
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	var dup map[string]interface{}
	status = s.postJSON(t, "/api/v1/parts", map[string]interface{}{"name": "Copy", "sku": "SDJDDH8223DHJ"}, &dup)
	assert.Equal(t, http.StatusConflict, status)

	var search models.SearchResponse
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/v1/parts/search?q=coil", &search))
	require.Equal(t, 1, search.Total)
	assert.Equal(t, created.ID, search.Hits[0].Part.ID)

	// The index survives a restart of the index handle.
	require.NoError(t, s.closeIndex())
	reopened, err := keyword.NewBleveIndex(s.cfg.Storage.BleveIndexPath)
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestIntegration_SeedPageAndCount(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	seeded, err := s.catalog.Seed(ctx, 23, catalog.NewSeeder(99))
	require.NoError(t, err)
	require.Equal(t, 23, seeded)

	seen := make(map[string]bool)
	for page := 1; page <= 5; page++ {
		var p models.PartPage
		require.Equal(t, http.StatusOK, s.getJSON(t, fmt.Sprintf("/api/v1/parts?page=%d", page), &p))
		assert.Equal(t, 5, p.TotalPages)
		assert.Equal(t, int64(23), p.TotalItems)
		for _, part := range p.Items {
			assert.False(t, seen[part.ID], "part %s listed twice", part.ID)
			seen[part.ID] = true
		}
	}
	assert.Len(t, seen, 23)

	pages, total, err := s.catalog.Pages(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, pages[5], 3)

	var words struct {
		Words []struct {
			Word  string `json:"word"`
			Count int    `json:"count"`
		} `json:"words"`
	}
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/v1/parts/word-frequency?top_n=3", &words))
	require.Len(t, words.Words, 3)
	assert.GreaterOrEqual(t, words.Words[0].Count, words.Words[1].Count)
	assert.GreaterOrEqual(t, words.Words[1].Count, words.Words[2].Count)
}

func TestIntegration_DropFolderImport(t *testing.T) {
	s := newStack(t)

	csv := "name,sku,description,weight_ounces,is_active\n" +
		"Flat washer,FW-100,Galvanized steel washer,1,1\n" +
		"Hex bolt,HB-200,Zinc plated bolt,3,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.dropDir, "batch1.csv"), []byte(csv), 0600))

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "SKU", "Description", "Weight", "Active"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Anchor", "AN-300", "Concrete wedge anchor", 4, "yes"}))
	require.NoError(t, f.SaveAs(filepath.Join(s.dropDir, "batch2.xlsx")))
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		n, err := s.store.CountParts(context.Background(), nil)
		return err == nil && n == 3
	}, 5*time.Second, 50*time.Millisecond)

	var search models.SearchResponse
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/v1/parts/search?q=galvanised", &search))
	require.Equal(t, 1, search.Total)
	assert.Equal(t, "FW-100", search.Hits[0].Part.SKU)
	assert.True(t, search.AutoFuzzy)

	var part models.Part
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/v1/parts/sku/AN-300", &part))
	assert.Equal(t, 4, part.WeightOunces)

	require.Eventually(t, func() bool {
		return len(s.watch.Reports()) >= 2
	}, 5*time.Second, 50*time.Millisecond)

	var status map[string]interface{}
	require.Equal(t, http.StatusOK, s.getJSON(t, "/api/v1/status", &status))
	imp, ok := status["import"].(map[string]interface{})
	require.True(t, ok)
	recent, ok := imp["recent"].([]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(recent), 2)
}
