package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/parts/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seedIndex(t *testing.T, idx *BleveIndex) {
	t.Helper()
	parts := []*models.Part{
		{ID: "coil", Name: "Heavy coil", SKU: "SDJDDH8223DHJ", Description: "Tightly wound nickel-gravy alloy spring", WeightOunces: 22, IsActive: 1},
		{ID: "washer", Name: "Reverse washer", SKU: "WASH-0001", Description: "Flat washer for heavy-load computing racks", WeightOunces: 1, IsActive: 1},
		{ID: "bolt", Name: "Anchor bolt", SKU: "BOLT-77", Description: "Galvanized steel", WeightOunces: 6, IsActive: 0},
	}
	ctx := context.Background()
	for _, p := range parts {
		require.NoError(t, idx.Index(ctx, p))
	}
}

func resultIDs(results []*Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func TestBleveIndex_SearchDescription(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	results, err := idx.Search(context.Background(), "nickel", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "coil", results[0].ID)
}

func TestBleveIndex_SearchNameIsCaseInsensitive(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	results, err := idx.Search(context.Background(), "ANCHOR", 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bolt"}, resultIDs(results))
}

func TestBleveIndex_NameBoostRanksNameFirst(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	// "heavy" is in the coil name and the washer description.
	results, err := idx.Search(context.Background(), "heavy", 10, &SearchOptions{NameBoost: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "coil", results[0].ID)
}

func TestBleveIndex_SearchSKU(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)
	ctx := context.Background()

	results, err := idx.Search(ctx, "wash-0001", 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "washer", results[0].ID)

	results, err = idx.Search(ctx, "BOLT-", 10, nil)
	require.NoError(t, err)
	assert.Contains(t, resultIDs(results), "bolt")
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)
	ctx := context.Background()

	results, err := idx.Search(ctx, "washr", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(ctx, "washr", 10, &SearchOptions{Fuzzy: true, Fuzziness: 1})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "washer", results[0].ID)
}

func TestBleveIndex_WeightRange(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	lo, hi := 5, 30
	results, err := idx.Search(context.Background(), "heavy", 10, &SearchOptions{MinWeight: &lo, MaxWeight: &hi})
	require.NoError(t, err)
	assert.Equal(t, []string{"coil"}, resultIDs(results))
}

func TestBleveIndex_ReindexAndDelete(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)
	ctx := context.Background()

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	require.NoError(t, idx.Index(ctx, &models.Part{ID: "bolt", Name: "Hex bolt", SKU: "BOLT-77"}))
	results, err := idx.Search(ctx, "anchor", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, idx.Delete(ctx, "bolt"))
	results, err = idx.Search(ctx, "hex", 10, nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	n, err = idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestBleveIndex_TermDictionary(t *testing.T) {
	idx := newTestIndex(t)
	seedIndex(t, idx)

	terms, err := idx.Terms()
	require.NoError(t, err)
	assert.Contains(t, terms, "washer")
	assert.Contains(t, terms, "galvanized")

	freq, err := idx.TermFrequency("heavy")
	require.NoError(t, err)
	assert.Equal(t, 2, freq)

	freq, err = idx.TermFrequency("washer")
	require.NoError(t, err)
	assert.Equal(t, 1, freq)

	s := NewSuggester(idx)
	corrected, ok := s.Correct("galvanised")
	assert.True(t, ok)
	assert.Equal(t, "galvanized", corrected)
}

func TestNewBleveIndex_ReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bleve")
	idx, err := NewBleveIndex(path)
	require.NoError(t, err)
	seedIndex(t, idx)
	require.NoError(t, idx.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewBleveIndex(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	n, err := reopened.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestMemoryBleveIndex(t *testing.T) {
	idx, err := NewMemoryBleveIndex()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	seedIndex(t, idx)

	results, err := idx.Search(context.Background(), "steel", 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bolt"}, resultIDs(results))
}
