package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pixeltime dev\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err, "an existing file is kept")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
	forceInit = false

	out, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "timezone: Europe/Paris")
	assert.Contains(t, out, "ntp_server: fr.pool.ntp.org")
}

func TestConfigShowDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "backend: gpiocdev")

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
