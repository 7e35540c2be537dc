package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestLevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelInfo)

	Debug("hidden", "k", 1)
	Info("placed events", "count", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "placed events")
	assert.Contains(t, out, "count=3")

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	buf.Reset()
	SetLevel(LevelError)
	Warn("dropped warning")
	assert.Empty(t, buf.String())
}

func TestErrorCarriesErr(t *testing.T) {
	buf := capture(t)

	Error("load failed", errors.New("boom"), "path", "events.yaml")
	out := buf.String()
	assert.Contains(t, out, "load failed")
	assert.Contains(t, out, "err=boom")
	assert.Contains(t, out, "path=events.yaml")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug":   LevelDebug,
		" Info ":  LevelInfo,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}
