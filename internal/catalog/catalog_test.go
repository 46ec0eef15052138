package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/parts/internal/config"
	"github.com/hyperjump/parts/internal/keyword"
	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/paging"
	"github.com/hyperjump/parts/internal/storage"
	"github.com/hyperjump/parts/internal/wordfreq"
)

func newTestService(t *testing.T, cfg *config.Config) *Service {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "parts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	idx, err := keyword.NewMemoryBleveIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	n := 0
	return New(store, idx, cfg, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("part-%03d", n)
	}))
}

func intPtr(v int) *int { return &v }

func coilInput() *models.PartInput {
	return &models.PartInput{
		Name:         "Heavy coil",
		SKU:          "SDJDDH8223DHJ",
		Description:  "Tightly wound nickel-gravy alloy spring",
		WeightOunces: 22,
		IsActive:     intPtr(1),
	}
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	part, err := svc.Create(ctx, coilInput())
	require.NoError(t, err)
	assert.Equal(t, "part-001", part.ID)
	assert.False(t, part.CreatedAt.IsZero())
	assert.Nil(t, part.UpdatedAt)

	got, err := svc.Get(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heavy coil", got.Name)

	bySKU, err := svc.GetBySKU(ctx, "SDJDDH8223DHJ")
	require.NoError(t, err)
	assert.Equal(t, part.ID, bySKU.ID)

	_, err = svc.GetBySKU(ctx, "MISSING")
	assert.True(t, IsNotFound(err))
}

func TestService_CreateTrimsAndDefaultsActive(t *testing.T) {
	svc := newTestService(t, nil)
	part, err := svc.Create(context.Background(), &models.PartInput{Name: "  Bolt ", SKU: " B-1 "})
	require.NoError(t, err)
	assert.Equal(t, "Bolt", part.Name)
	assert.Equal(t, "B-1", part.SKU)
	assert.Equal(t, 1, part.IsActive)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Create(context.Background(), &models.PartInput{
		Description:  strings.Repeat("x", models.DescriptionMaxLength+1),
		WeightOunces: -1,
	})
	verr, ok := models.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	for _, field := range []string{"name", "sku", "description", "weight_ounces"} {
		assert.True(t, verr.Has(field), "missing field %s", field)
	}

	n, err := svc.store.CountParts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_DuplicateSKU(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, coilInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, coilInput())
	assert.True(t, errors.Is(err, storage.ErrDuplicateSKU), "got %v", err)

	indexed, err := svc.index.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), indexed)
}

func TestService_Update(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	part, err := svc.Create(ctx, coilInput())
	require.NoError(t, err)

	in := coilInput()
	in.Name = "Light coil"
	in.Description = "Loosely wound copper spring"
	updated, err := svc.Update(ctx, part.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Light coil", updated.Name)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Equal(part.CreatedAt))

	resp, err := svc.Search(ctx, &models.SearchQuery{Query: "copper"})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, part.ID, resp.Hits[0].Part.ID)

	_, err = svc.Update(ctx, "missing", coilInput())
	assert.True(t, IsNotFound(err))

	_, err = svc.Update(ctx, part.ID, &models.PartInput{Name: "x"})
	_, ok := models.AsValidationError(err)
	assert.True(t, ok)
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	part, err := svc.Create(ctx, coilInput())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, part.ID))

	_, err = svc.Get(ctx, part.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(svc.Delete(ctx, part.ID)))

	resp, err := svc.Search(ctx, &models.SearchQuery{Query: "coil"})
	require.NoError(t, err)
	assert.Empty(t, resp.Hits)
}

func createN(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), &models.PartInput{
			Name: fmt.Sprintf("Part %02d", i),
			SKU:  fmt.Sprintf("SKU-%02d", i),
		})
		require.NoError(t, err)
	}
}

func TestService_List(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createN(t, svc, 13)

	page, err := svc.List(ctx, &models.ListFilter{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(13), page.TotalItems)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "Part 00", page.Items[0].Name)

	last, err := svc.List(ctx, &models.ListFilter{Page: 3, PageSize: 5})
	require.NoError(t, err)
	require.Len(t, last.Items, 3)
	assert.Equal(t, "Part 12", last.Items[2].Name)

	beyond, err := svc.List(ctx, &models.ListFilter{Page: 4, PageSize: 5})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	_, err = svc.List(ctx, &models.ListFilter{PageSize: -1})
	_, ok := models.AsValidationError(err)
	assert.True(t, ok)
}

func TestService_ListDefaultsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paging.PageSize = 4
	cfg.Paging.MaxPageSize = 6
	svc := newTestService(t, cfg)
	createN(t, svc, 10)

	page, err := svc.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)

	capped, err := svc.List(context.Background(), &models.ListFilter{PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 6, capped.PageSize)
	assert.Len(t, capped.Items, 6)
}

func TestService_Pages(t *testing.T) {
	svc := newTestService(t, nil)
	createN(t, svc, 13)

	pages, n, err := svc.Pages(context.Background(), &models.ListFilter{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, pages, 3)
	assert.Len(t, pages[3], 3)
	assert.Equal(t, "Part 12", pages[3][2].Name)
}

func TestService_PagesMatchesPaginate(t *testing.T) {
	svc := newTestService(t, nil)
	createN(t, svc, 7)
	ctx := context.Background()

	pages, n, err := svc.Pages(ctx, &models.ListFilter{PageSize: 3})
	require.NoError(t, err)
	for p := 1; p <= n; p++ {
		page, err := svc.List(ctx, &models.ListFilter{Page: p, PageSize: 3})
		require.NoError(t, err)
		require.Len(t, page.Items, len(pages[p]))
		for i := range page.Items {
			assert.Equal(t, pages[p][i].ID, page.Items[i].ID)
		}
	}
	_, err = paging.Pages(7, 0)
	assert.ErrorIs(t, err, paging.ErrInvalidArgument)
}

func TestService_Search(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, coilInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.PartInput{Name: "Reverse washer", SKU: "WASH-1", Description: "Flat galvanized washer", WeightOunces: 1})
	require.NoError(t, err)

	resp, err := svc.Search(ctx, &models.SearchQuery{Query: "nickel"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "Heavy coil", resp.Hits[0].Part.Name)
	assert.Equal(t, 1, resp.Hits[0].Rank)
	assert.False(t, resp.AutoFuzzy)

	resp, err = svc.Search(ctx, &models.SearchQuery{Query: "wash-1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Hits)
	assert.Equal(t, "WASH-1", resp.Hits[0].Part.SKU)

	_, err = svc.Search(ctx, &models.SearchQuery{Query: "   "})
	_, ok := models.AsValidationError(err)
	assert.True(t, ok)
}

func TestService_SearchAutoFuzzy(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, &models.PartInput{Name: "Reverse washer", SKU: "WASH-1", Description: "Flat galvanized washer"})
	require.NoError(t, err)

	resp, err := svc.Search(ctx, &models.SearchQuery{Query: "galvanised"})
	require.NoError(t, err)
	assert.True(t, resp.AutoFuzzy)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "Reverse washer", resp.Hits[0].Part.Name)
}

func TestService_SearchSuggestions(t *testing.T) {
	cfg := config.Default()
	cfg.Search.Fuzziness = 1
	svc := newTestService(t, cfg)
	ctx := context.Background()
	_, err := svc.Create(ctx, &models.PartInput{Name: "Reverse washer", SKU: "WASH-1", Description: "Flat galvanized washer"})
	require.NoError(t, err)

	// Two edits away: too far for fuzziness 1, but the suggester is built with the same
	// distance, so there is no suggestion either.
	resp, err := svc.Search(ctx, &models.SearchQuery{Query: "waskr"})
	require.NoError(t, err)
	assert.Empty(t, resp.Hits)

	sg := keyword.NewSuggester(svc.index.(keyword.TermDictionary), keyword.WithMaxDistance(2))
	svc2 := New(svc.store, svc.index, cfg, WithSuggester(sg))
	resp, err = svc2.Search(ctx, &models.SearchQuery{Query: "waskr"})
	require.NoError(t, err)
	assert.Empty(t, resp.Hits)
	assert.Equal(t, []string{"washer"}, resp.Suggestions)
}

func TestService_WordFrequency(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.Create(ctx, &models.PartInput{Name: "A", SKU: "A", Description: "Used for heavy-load computing"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &models.PartInput{Name: "B", SKU: "B", Description: "computing rack rail computing", IsActive: intPtr(0)})
	require.NoError(t, err)

	one, err := svc.WordFrequency(ctx, &WordFrequencyRequest{ID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Used": 1, "heavy-load": 1, "computing": 1}, toMap(one))

	all, err := svc.WordFrequency(ctx, nil)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, "computing", all[0].Word)
	assert.Equal(t, 3, all[0].Count)

	active, err := svc.WordFrequency(ctx, &WordFrequencyRequest{Filter: &models.ListFilter{IsActive: intPtr(1)}, TopN: 1})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Used", active[0].Word)

	_, err = svc.WordFrequency(ctx, &WordFrequencyRequest{ID: "missing"})
	assert.True(t, IsNotFound(err))

	_, err = svc.WordFrequency(ctx, &WordFrequencyRequest{TopN: -1})
	_, ok := models.AsValidationError(err)
	assert.True(t, ok)
}

func TestService_WordFrequencyZeroMeansConfigDefault(t *testing.T) {
	cfg := config.Default()
	cfg.WordFrequency.MinLength = 4
	cfg.WordFrequency.TopN = 2
	svc := newTestService(t, cfg)
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.PartInput{Name: "A", SKU: "A", Description: "gear gear gear bolt bolt spring"})
	require.NoError(t, err)

	zero, err := svc.WordFrequency(ctx, &WordFrequencyRequest{MinLength: 0, TopN: 0})
	require.NoError(t, err)
	assert.Equal(t, []wordfreq.WordCount{{Word: "spring", Count: 1}}, zero)

	explicit, err := svc.WordFrequency(ctx, &WordFrequencyRequest{MinLength: 3, TopN: 5})
	require.NoError(t, err)
	assert.Equal(t, []wordfreq.WordCount{{Word: "gear", Count: 3}, {Word: "bolt", Count: 2}, {Word: "spring", Count: 1}}, explicit)

	_, err = svc.WordFrequency(ctx, &WordFrequencyRequest{MinLength: -1})
	verr, ok := models.AsValidationError(err)
	require.True(t, ok)
	assert.True(t, verr.Has("min_length"))
	assert.Equal(t, models.KindMinValue, verr.Fields[0].Kind)
}

func toMap(counts []wordfreq.WordCount) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.Word] = c.Count
	}
	return m
}

func TestService_ReindexAndStats(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	createN(t, svc, 4)
	_, err := svc.Create(ctx, &models.PartInput{Name: "Off", SKU: "OFF", IsActive: intPtr(0)})
	require.NoError(t, err)

	fresh, err := keyword.NewMemoryBleveIndex()
	require.NoError(t, err)
	defer func() { _ = fresh.Close() }()
	rebuilt := New(svc.store, fresh, nil)

	before, err := rebuilt.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), before.IndexedParts)

	n, err := rebuilt.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	stats, err := rebuilt.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{TotalParts: 5, ActiveParts: 4, InactiveParts: 1, IndexedParts: 5}, stats)
}

func TestService_Seed(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	n, err := svc.Seed(ctx, 30, NewSeeder(42))
	require.NoError(t, err)
	assert.Equal(t, 30, n)

	page, err := svc.List(ctx, &models.ListFilter{PageSize: 100})
	require.NoError(t, err)
	assert.Len(t, page.Items, 30)
	for _, p := range page.Items {
		assert.Len(t, p.SKU, 12)
		assert.GreaterOrEqual(t, p.WeightOunces, 1)
		assert.LessOrEqual(t, p.WeightOunces, 50)
		assert.Len(t, strings.Fields(p.Description), 6)
	}
}

func TestSeeder_InputIsValid(t *testing.T) {
	g := NewSeeder(7)
	for i := 0; i < 100; i++ {
		in := g.Input()
		require.NoError(t, in.Validate())
	}
}

func TestService_SeedCancelled(t *testing.T) {
	svc := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := svc.Seed(ctx, 0, NewSeeder(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
