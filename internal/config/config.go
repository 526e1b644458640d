// Package config loads the YAML configuration, layering the file and
// PIXELTIME_* environment variables over built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/internal/types"
	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
	"github.com/fkcurrie/pixeltime-golang/pkg/gpio"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

var logger = logging.New("config")

// DefaultPath is where the daemon looks for its configuration
const DefaultPath = "/etc/pixeltime/config.yaml"

// EnvPrefix prefixes environment overrides, e.g. PIXELTIME_OUTPUT_BACKEND
const EnvPrefix = "PIXELTIME"

// Config is the application configuration
type Config = types.Config

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Panel: types.PanelConfig{
			Width:      framebuffer.DefaultWidth,
			Height:     framebuffer.DefaultHeight,
			ColorDepth: 8,
		},
		Refresh: types.RefreshConfig{
			Interval: 500 * time.Microsecond,
			Dwell:    50 * time.Microsecond,
		},
		Output: types.OutputConfig{
			Backend: types.BackendGPIOCdev,
			Chip:    "gpiochip0",
			Pinout:  gpio.BonnetPinout(),
		},
		Clock: types.ClockConfig{
			Timezone:    "Europe/Paris",
			NTPServer:   "fr.pool.ntp.org",
			NTPInterval: time.Hour,
			Tick:        time.Second,
			Time:        types.FieldConfig{X: 1, Y: 1, Color: "green"},
			Date:        types.FieldConfig{X: 1, Y: 9, Color: "blue"},
		},
		Splash: types.SplashConfig{
			Lines: []types.SplashLine{
				{X: 2, Y: 0, Text: "Pixel", Color: "cyan"},
				{X: 2, Y: 8, Text: "Time", Color: "magenta"},
			},
			Duration: 3 * time.Second,
		},
		Serial: types.SerialConfig{
			Baud: logging.DefaultBaud,
		},
		Web: types.WebConfig{
			Listen: ":8080",
		},
	}
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"backend":  "output.backend",
	"chip":     "output.chip",
	"preview":  "output.preview",
	"dwell":    "refresh.dwell",
	"realtime": "refresh.realtime",
	"timezone": "clock.timezone",
	"listen":   "web.listen",
	"serial":   "serial.port",
}

// Load reads the configuration at path. On first run the default
// configuration is written there (0600) and returned. Flags from flags that
// were set on the command line override both file and environment.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	return load(path, flags, true)
}

// Read is Load without the first run write: a missing file yields the
// defaults and nothing is created
func Read(path string, flags *pflag.FlagSet) (*Config, error) {
	return load(path, flags, false)
}

func load(path string, flags *pflag.FlagSet, writeDefaults bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !writeDefaults:
			logger.Debug("Config file not found, using defaults", "path", path)
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("Config file not found, writing defaults", "path", path)
			if err := Save(path, DefaultConfig()); err != nil {
				logger.Warn("Failed to write default config", "path", path, "err", err)
			}
		case err != nil:
			return nil, err
		default:
			v.SetConfigFile(path)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			logger.Debug("Loaded config file", "path", v.ConfigFileUsed())
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		// BindPFlag only overrides when the flag was changed
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("failed to bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Normalize fills zero values with defaults
func Normalize(cfg *Config) {
	def := DefaultConfig()
	if cfg.Panel.Width == 0 {
		cfg.Panel.Width = def.Panel.Width
	}
	if cfg.Panel.Height == 0 {
		cfg.Panel.Height = def.Panel.Height
	}
	if cfg.Panel.ColorDepth == 0 {
		cfg.Panel.ColorDepth = def.Panel.ColorDepth
	}
	if cfg.Refresh.Interval <= 0 {
		cfg.Refresh.Interval = def.Refresh.Interval
	}
	if cfg.Refresh.Dwell <= 0 {
		cfg.Refresh.Dwell = def.Refresh.Dwell
	}
	if cfg.Output.Backend == "" {
		cfg.Output.Backend = def.Output.Backend
	}
	cfg.Output.Backend = strings.ToLower(cfg.Output.Backend)
	if cfg.Output.Chip == "" {
		cfg.Output.Chip = def.Output.Chip
	}
	if cfg.Clock.Tick <= 0 {
		cfg.Clock.Tick = def.Clock.Tick
	}
	if cfg.Clock.NTPInterval <= 0 {
		cfg.Clock.NTPInterval = def.Clock.NTPInterval
	}
	if cfg.Clock.Time.Color == "" {
		cfg.Clock.Time.Color = def.Clock.Time.Color
	}
	if cfg.Clock.Date.Color == "" {
		cfg.Clock.Date.Color = def.Clock.Date.Color
	}
	if cfg.Serial.Baud <= 0 {
		cfg.Serial.Baud = def.Serial.Baud
	}
	if len(cfg.Announcements) == 0 {
		cfg.Announcements = nil
	}
	for i := range cfg.Announcements {
		if cfg.Announcements[i].Color == "" {
			cfg.Announcements[i].Color = "white"
		}
	}
}

// Validate rejects configurations the panel cannot run with. A dwell
// outside the known safe range is only warned about.
func Validate(cfg *Config) error {
	geom := hub75.Geometry{Width: cfg.Panel.Width, Height: cfg.Panel.Height}
	if err := geom.Validate(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	if cfg.Panel.ColorDepth < 1 || cfg.Panel.ColorDepth > hub75.MaxColorDepth {
		return fmt.Errorf("panel: %w: %d", hub75.ErrInvalidColorDepth, cfg.Panel.ColorDepth)
	}

	if d := cfg.Refresh.Dwell; d < hub75.SafeDwellMin || d > hub75.SafeDwellMax {
		logger.Warn("Refresh dwell outside the safe range",
			"dwell", d, "min", hub75.SafeDwellMin, "max", hub75.SafeDwellMax)
	}

	switch cfg.Output.Backend {
	case types.BackendGPIOCdev, types.BackendPeriph:
		if err := cfg.Output.Pinout.Validate(); err != nil {
			return fmt.Errorf("output.pinout: %w", err)
		}
	case types.BackendVirtual:
	default:
		return fmt.Errorf("output.backend: unknown backend %q", cfg.Output.Backend)
	}

	colors := map[string]string{
		"clock.time.color": cfg.Clock.Time.Color,
		"clock.date.color": cfg.Clock.Date.Color,
	}
	for i, l := range cfg.Splash.Lines {
		colors[fmt.Sprintf("splash.lines[%d].color", i)] = l.Color
	}
	for i, a := range cfg.Announcements {
		colors[fmt.Sprintf("announcements[%d].color", i)] = a.Color
		if _, err := cron.ParseStandard(a.Cron); err != nil {
			return fmt.Errorf("announcements[%d].cron: %w", i, err)
		}
	}
	for key, c := range colors {
		if _, err := framebuffer.ParseColor(c); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// Save writes cfg to path atomically with 0600 permissions
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pixeltime-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Marshal renders cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
