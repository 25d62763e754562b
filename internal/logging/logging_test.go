package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/medassist-client/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterEmitsJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "debug", "PROD")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger.Debug().Str("component", "test").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "medassist", line["app"])
	require.Equal(t, "debug", line["level"])
}

func TestSetupWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "not-a-level", "PROD")
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger.Debug().Msg("hidden")
	require.Empty(t, buf.String())
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
