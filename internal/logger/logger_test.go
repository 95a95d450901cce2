package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	defer func() { level = zerolog.InfoLevel }()

	require.NoError(t, SetLevel(""))
	assert.Equal(t, zerolog.InfoLevel, level)

	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, level)

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestNewWritesLogFile(t *testing.T) {
	defer func() {
		SetLogFile(nil)
		level = zerolog.InfoLevel
	}()

	path := filepath.Join(t.TempDir(), "logs", "sonata.log")
	f, err := OpenLogFile(path)
	require.NoError(t, err)
	defer f.Close()

	l := New("test")
	l.Debug().Msg("hidden")
	l.Info().Str("pipeline", "new-cons").Msg("visible")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"service":"test"`)
	assert.Contains(t, lines[0], `"pipeline":"new-cons"`)
	assert.Contains(t, lines[0], `"message":"visible"`)
}
