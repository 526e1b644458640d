package logging

import (
	"bytes"
	"os"
	"testing"

	logxi "github.com/mgutz/logxi/v1"
	"github.com/stretchr/testify/assert"
)

func TestNewReturnsSameLogger(t *testing.T) {
	a := New("test-same")
	b := New("test-same")
	assert.Same(t, a, b)
}

func TestSetVerbose(t *testing.T) {
	l := New("test-verbose")
	t.Cleanup(func() { SetVerbose(false) })

	SetVerbose(true)
	assert.True(t, l.IsDebug())
	assert.True(t, New("test-verbose-late").IsDebug(), "loggers created later inherit the level")

	SetVerbose(false)
	assert.False(t, l.IsDebug())
	assert.True(t, l.IsInfo())
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	New("test-output").Info("panel ready", "width", 32)
	assert.Contains(t, buf.String(), "panel ready")

	SetLevel(logxi.LevelWarn)
	t.Cleanup(func() { SetLevel(logxi.LevelInfo) })
	buf.Reset()
	New("test-output").Info("hidden")
	assert.Empty(t, buf.String())
}
