package mac

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	var cases = map[string]log.Level{
		"":      log.InfoLevel,
		"debug": log.DebugLevel,
		"INFO":  log.InfoLevel,
		"Warn":  log.WarnLevel,
		"error": log.ErrorLevel,
	}

	for s, want := range cases {
		var got, err = ParseLogLevel(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	var _, err = ParseLogLevel("chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatty")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	var logger, err = NewLogger(&buf, "warn", false)
	require.NoError(t, err)

	logger.Info("not shown")
	logger.Warn("queue full", "category", Voice)

	assert.NotContains(t, buf.String(), "not shown")
	assert.Contains(t, buf.String(), "macsim")
	assert.Contains(t, buf.String(), "queue full")
	assert.Contains(t, buf.String(), "category=voice")

	_, err = NewLogger(&buf, "loud", false)
	assert.Error(t, err)
}
