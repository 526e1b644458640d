package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/pixeltime-golang/internal/types"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 32, cfg.Panel.Width)
	assert.Equal(t, 16, cfg.Panel.Height)
	assert.Equal(t, 50*time.Microsecond, cfg.Refresh.Dwell)
	assert.Equal(t, "Europe/Paris", cfg.Clock.Timezone)
	assert.Equal(t, "fr.pool.ntp.org", cfg.Clock.NTPServer)
}

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// the written file loads back to the same thing
	again, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestReadMissingFileCreatesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Read(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadExistingFile(t *testing.T) {
	cfg, err := Read(writeFile(t, "web:\n  listen: ':7000'\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Web.Listen)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeFile(t, `
panel:
  color_depth: 4
refresh:
  dwell: 40us
output:
  backend: virtual
clock:
  timezone: UTC
  time:
    color: "#ff8000"
announcements:
  - cron: "0 * * * *"
    text: "Top of the hour"
    y: 4
    step_delay: 30ms
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Panel.ColorDepth)
	assert.Equal(t, 32, cfg.Panel.Width, "untouched keys keep their default")
	assert.Equal(t, 40*time.Microsecond, cfg.Refresh.Dwell)
	assert.Equal(t, types.BackendVirtual, cfg.Output.Backend)
	assert.Equal(t, "UTC", cfg.Clock.Timezone)
	assert.Equal(t, "#ff8000", cfg.Clock.Time.Color)
	assert.Equal(t, 1, cfg.Clock.Time.X)
	require.Len(t, cfg.Announcements, 1)
	assert.Equal(t, types.AnnouncementConfig{
		Cron: "0 * * * *", Text: "Top of the hour", Color: "white", Y: 4, StepDelay: 30 * time.Millisecond,
	}, cfg.Announcements[0])
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "output:\n  backend: periph\n")
	t.Setenv("PIXELTIME_OUTPUT_BACKEND", "virtual")
	t.Setenv("PIXELTIME_WEB_LISTEN", "127.0.0.1:9000")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, types.BackendVirtual, cfg.Output.Backend)
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.Listen)
}

func TestLoadFlagOverride(t *testing.T) {
	path := writeFile(t, "output:\n  backend: periph\nweb:\n  listen: ':7000'\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("backend", "", "")
	flags.String("listen", ":8080", "")
	flags.Duration("dwell", 50*time.Microsecond, "")
	require.NoError(t, flags.Parse([]string{"--backend", "virtual", "--dwell", "60us"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, types.BackendVirtual, cfg.Output.Backend)
	assert.Equal(t, 60*time.Microsecond, cfg.Refresh.Dwell)
	assert.Equal(t, ":7000", cfg.Web.Listen, "unset flags do not override the file")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "odd height", content: "panel:\n  height: 15\n", wantErr: "invalid panel geometry"},
		{name: "depth", content: "panel:\n  color_depth: 12\n", wantErr: "invalid color depth"},
		{name: "backend", content: "output:\n  backend: spi\n", wantErr: "unknown backend"},
		{name: "color", content: "clock:\n  date:\n    color: mauve\n", wantErr: "clock.date.color"},
		{name: "cron", content: "announcements:\n  - cron: every day\n    text: x\n", wantErr: "announcements[0].cron"},
		{name: "pinout", content: "output:\n  pinout:\n    e: 22\n", wantErr: "already used"},
		{name: "yaml", content: "panel: [1, 2\n", wantErr: "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateErrorsWrapSentinels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Panel.Width = 0
	assert.ErrorIs(t, Validate(cfg), hub75.ErrInvalidGeometry)

	cfg = DefaultConfig()
	cfg.Panel.ColorDepth = 9
	assert.ErrorIs(t, Validate(cfg), hub75.ErrInvalidColorDepth)
}

func TestDwellOutsideSafeRangeIsAccepted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.Dwell = 200 * time.Microsecond
	assert.NoError(t, Validate(cfg))
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Web.Listen = ":9999"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Web.Listen)

	assert.Error(t, Save("", cfg))
	assert.Error(t, Save(path, nil))
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: gpiocdev")
	assert.Contains(t, string(data), "timezone: Europe/Paris")
}
