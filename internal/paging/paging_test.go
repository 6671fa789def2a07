package paging_test

import (
	"testing"

	"github.com/jrsteele09/clienthunt-admin/internal/paging"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	require.Equal(t, 3, paging.TotalPages(57, 20))
	require.Equal(t, 3, paging.TotalPages(60, 20))
	require.Equal(t, 4, paging.TotalPages(61, 20))
	require.Equal(t, 0, paging.TotalPages(0, 20))
	require.Equal(t, 0, paging.TotalPages(10, 0))
}

func TestNextDisabledOnlyOnLastPage(t *testing.T) {
	pages := paging.TotalPages(57, 20)
	require.True(t, paging.HasNext(1, pages))
	require.True(t, paging.HasNext(2, pages))
	require.False(t, paging.HasNext(3, pages))
	require.False(t, paging.HasNext(4, pages))
}

func TestSkip(t *testing.T) {
	require.Equal(t, 0, paging.Skip(1, 20))
	require.Equal(t, 40, paging.Skip(3, 20))
	require.Equal(t, 0, paging.Skip(0, 20))
}

func TestWindow(t *testing.T) {
	w := paging.NewWindow(0, 0, 57)
	require.Equal(t, 1, w.Page)
	require.Equal(t, paging.DefaultLimit, w.Limit)
	require.Equal(t, 3, w.TotalPages)
	require.False(t, w.HasPrev())
	require.True(t, w.HasNext())
	require.Equal(t, 2, w.Next())
}
