package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fkcurrie/pixeltime-golang/internal/config"
	"github.com/fkcurrie/pixeltime-golang/internal/logging"
)

var logger = logging.New("pixeltime")

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pixeltime",
	Short: "Drive an RGB LED matrix as a network clock",
	Long: `PixelTime refreshes a HUB75 RGB LED matrix from its own goroutine and
draws the time and date on it, synchronised over NTP. Scheduled and posted
messages scroll across the panel between clock ticks.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.SetVerbose(verbose)
	},
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
