package errors_test

import (
	"io"
	"testing"

	apperrors "github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapf(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, apperrors.Wrapf(nil, "[Test] ignored"))
	})

	t.Run("keeps the chain", func(t *testing.T) {
		err := apperrors.Wrapf(apperrors.ErrNotAdmin, "[Login] user %s", "bob")
		require.EqualError(t, err, "[Login] user bob: admin privileges required")
		require.True(t, apperrors.Is(err, apperrors.ErrNotAdmin))
		require.False(t, apperrors.Is(err, io.EOF))
	})
}
