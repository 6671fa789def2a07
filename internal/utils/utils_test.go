package utils_test

import (
	"testing"

	"github.com/jrsteele09/clienthunt-admin/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestIntOrDefault(t *testing.T) {
	require.Equal(t, 3, utils.IntOrDefault("3", 1))
	require.Equal(t, 1, utils.IntOrDefault("", 1))
	require.Equal(t, 20, utils.IntOrDefault("-4", 20))
	require.Equal(t, 20, utils.IntOrDefault("abc", 20))
}

func TestFirstNonEmpty(t *testing.T) {
	require.Equal(t, "b", utils.FirstNonEmpty("", "  ", "b", "c"))
	require.Equal(t, "", utils.FirstNonEmpty())
}

func TestPtrValue(t *testing.T) {
	t.Run("nil reads as zero", func(t *testing.T) {
		require.Equal(t, 0, utils.Value[int](nil))
		require.Equal(t, "", utils.Value[string](nil))
	})

	t.Run("ptr copies its argument", func(t *testing.T) {
		s := "x"
		p := utils.Ptr(s)
		s = "y"
		require.Equal(t, "x", utils.Value(p))
	})
}
