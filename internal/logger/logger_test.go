package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestDebug_SilentByDefault(t *testing.T) {
	defer reset()
	buf := new(bytes.Buffer)
	SetOutput(buf)

	Debug("hidden %s", "message")
	assert.Empty(t, buf.String())
}

func TestDebug_VerboseMode(t *testing.T) {
	defer reset()
	buf := new(bytes.Buffer)
	SetOutput(buf)
	SetVerbose(true)

	Debug("embedding %d chunks", 3)
	Info("done")
	Warn("provider %s failed", "openai")
	Section("Search")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] embedding 3 chunks")
	assert.Contains(t, out, "[INFO] done")
	assert.Contains(t, out, "[WARN] provider openai failed")
	assert.Contains(t, out, "=== Search ===")
}

func TestIsVerbose(t *testing.T) {
	defer reset()
	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
}
