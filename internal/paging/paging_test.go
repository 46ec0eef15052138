package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginate_ThirteenByFive(t *testing.T) {
	items := seq(13)
	pages, n, err := Paginate(items, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, items[0:5], pages[1])
	assert.Equal(t, items[5:10], pages[2])
	assert.Equal(t, items[10:13], pages[3])
}

func TestPaginate_LastPageKeepsFinalItem(t *testing.T) {
	items := seq(11)
	pages, n, err := Paginate(items, 5)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	assert.Equal(t, []int{10}, pages[3])
}

func TestPaginate_Empty(t *testing.T) {
	pages, n, err := Paginate([]string{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pages, 1)
	assert.NotNil(t, pages[1])
	assert.Empty(t, pages[1])

	pages, n, err = Paginate[string](nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotNil(t, pages[1])
}

func TestPaginate_SinglePage(t *testing.T) {
	items := seq(5)
	pages, n, err := Paginate(items, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, items, pages[1])
}

func TestPaginate_InvalidPageSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, _, err := Paginate(seq(3), size)
		assert.ErrorIs(t, err, ErrInvalidArgument, "size %d", size)
	}
}

func TestPaginate_ReconstructsInput(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for size := 1; size <= 12; size++ {
			items := seq(total)
			pages, n, err := Paginate(items, size)
			require.NoError(t, err)
			assert.Equal(t, (total+size-1)/size, n, "total=%d size=%d", total, size)

			var joined []int
			for p := 1; p <= n; p++ {
				assert.LessOrEqual(t, len(pages[p]), size)
				joined = append(joined, pages[p]...)
			}
			assert.Equal(t, items, joined, "total=%d size=%d", total, size)
		}
	}
}

func TestPaginate_PagesDoNotAlias(t *testing.T) {
	items := seq(10)
	pages, _, err := Paginate(items, 5)
	require.NoError(t, err)
	first := append(pages[1], 99)
	assert.Equal(t, 99, first[5])
	assert.Equal(t, 5, pages[2][0], "appending to page 1 must not clobber page 2")
}

func TestPage(t *testing.T) {
	items := seq(13)
	got, n, err := Page(items, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{10, 11, 12}, got)

	got, _, err = Page(items, 4, 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, err = Page(items, 0, 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 5, 1},
		{1, 5, 1},
		{5, 5, 1},
		{6, 5, 2},
		{1025, 50, 21},
	}
	for _, tt := range tests {
		got, err := Pages(tt.total, tt.size)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "Pages(%d, %d)", tt.total, tt.size)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 50))
	assert.Equal(t, 100, Offset(3, 50))
	assert.Equal(t, 0, Offset(0, 50))
}
