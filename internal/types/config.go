package types

import "time"

// Config represents the application configuration
type Config struct {
	Panel         PanelConfig          `yaml:"panel" mapstructure:"panel"`
	Refresh       RefreshConfig        `yaml:"refresh" mapstructure:"refresh"`
	Output        OutputConfig         `yaml:"output" mapstructure:"output"`
	Clock         ClockConfig          `yaml:"clock" mapstructure:"clock"`
	Splash        SplashConfig         `yaml:"splash" mapstructure:"splash"`
	Announcements []AnnouncementConfig `yaml:"announcements" mapstructure:"announcements"`
	Serial        SerialConfig         `yaml:"serial" mapstructure:"serial"`
	Web           WebConfig            `yaml:"web" mapstructure:"web"`
}

// FieldConfig places a line of text
type FieldConfig struct {
	X     int    `yaml:"x" mapstructure:"x"`
	Y     int    `yaml:"y" mapstructure:"y"`
	Color string `yaml:"color" mapstructure:"color"`
}

// ClockConfig represents the clock face and its time source
type ClockConfig struct {
	Timezone    string        `yaml:"timezone" mapstructure:"timezone"`
	NTPServer   string        `yaml:"ntp_server" mapstructure:"ntp_server"`
	NTPInterval time.Duration `yaml:"ntp_interval" mapstructure:"ntp_interval"`
	Tick        time.Duration `yaml:"tick" mapstructure:"tick"`
	Time        FieldConfig   `yaml:"time" mapstructure:"time"`
	Date        FieldConfig   `yaml:"date" mapstructure:"date"`
}

// SplashLine is one line of the boot splash
type SplashLine struct {
	X     int    `yaml:"x" mapstructure:"x"`
	Y     int    `yaml:"y" mapstructure:"y"`
	Text  string `yaml:"text" mapstructure:"text"`
	Color string `yaml:"color" mapstructure:"color"`
}

// SplashConfig represents the boot splash. An SVG, when set, replaces the
// text lines.
type SplashConfig struct {
	Lines    []SplashLine  `yaml:"lines" mapstructure:"lines"`
	SVG      string        `yaml:"svg" mapstructure:"svg"`
	Duration time.Duration `yaml:"duration" mapstructure:"duration"`
}

// AnnouncementConfig is a scrolling message on a cron schedule
type AnnouncementConfig struct {
	Cron      string        `yaml:"cron" mapstructure:"cron"`
	Text      string        `yaml:"text" mapstructure:"text"`
	Color     string        `yaml:"color" mapstructure:"color"`
	Y         int           `yaml:"y" mapstructure:"y"`
	StepDelay time.Duration `yaml:"step_delay" mapstructure:"step_delay"`
}

// SerialConfig represents the diagnostic console; an empty port disables it
type SerialConfig struct {
	Port string `yaml:"port" mapstructure:"port"`
	Baud int    `yaml:"baud" mapstructure:"baud"`
}

// WebConfig represents the HTTP API; an empty listen address disables it
type WebConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}
