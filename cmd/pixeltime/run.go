package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fkcurrie/pixeltime-golang/internal/app"
	"github.com/fkcurrie/pixeltime-golang/internal/config"
	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/internal/refresh"
	"github.com/fkcurrie/pixeltime-golang/internal/types"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clock on the panel",
	Long: `Load the configuration, show the splash, start refreshing the panel and
keep the clock face up to date until interrupted. Flags override the
configuration file and PIXELTIME_* environment variables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		if cfg.Serial.Port != "" {
			closer, err := logging.MirrorSerial(cfg.Serial.Port, cfg.Serial.Baud)
			if err != nil {
				logger.Warn("Serial console unavailable", "err", err)
			} else {
				defer closer.Close()
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to start: %w", err)
		}
		logger.Info("Starting PixelTime",
			"version", version,
			"backend", cfg.Output.Backend,
			"panel", fmt.Sprintf("%dx%d", cfg.Panel.Width, cfg.Panel.Height),
			"timezone", cfg.Clock.Timezone)

		if err := a.Run(ctx); err != nil {
			return err
		}
		logger.Info("Stopped")
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.String("backend", types.BackendGPIOCdev, "panel output: gpiocdev, periph or virtual")
	f.String("chip", "gpiochip0", "GPIO chip for the gpiocdev backend")
	f.Bool("preview", false, "open a desktop window showing the panel (builds with -tags preview)")
	f.Duration("dwell", refresh.DefaultDwell, "output-enable hold per refresh pass (brightness)")
	f.Bool("realtime", false, "raise the priority of the refresh thread")
	f.String("timezone", "", "IANA timezone of the clock, e.g. Europe/Paris")
	f.String("listen", "", "HTTP API listen address; empty disables it")
	f.String("serial", "", "serial port to mirror logs to")

	rootCmd.AddCommand(runCmd)
}
