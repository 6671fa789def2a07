package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/clienthunt-admin/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		require.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
		require.Equal(t, zerolog.TraceLevel, logging.ParseLevel("trace"))
		require.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warning"))
		require.Equal(t, zerolog.ErrorLevel, logging.ParseLevel(" error "))
		require.Equal(t, zerolog.FatalLevel, logging.ParseLevel("fatal"))
		require.Equal(t, zerolog.Disabled, logging.ParseLevel("off"))
	})

	t.Run("unknown or empty falls back to info", func(t *testing.T) {
		require.Equal(t, zerolog.InfoLevel, logging.ParseLevel("chatty"))
		require.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	})
}

func TestSetupWriterJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "PROD", "info")
	logger.Debug().Msg("hidden")
	logger.Info().Str("component", "test").Msg("visible")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"component":"test"`)
	require.Contains(t, out, `"message":"visible"`)
}
