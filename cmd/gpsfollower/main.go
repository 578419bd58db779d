package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Qetrox/esp32-gps-follower/pkg/config"
	"github.com/Qetrox/esp32-gps-follower/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gpsfollower",
	Short: "GPS Follower - last known position tracking for ESP32 class trackers",
	Long: `GPS Follower keeps the last known position of a GPS tracker.

The server ingests position packets over HTTP, classifies staleness, and
distributes WiFi credentials. The tracker agent runs on the device, decodes
NMEA from a serial GPS, and pushes a packet every cycle.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"GPS Follower version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(trackerCmd)
	rootCmd.AddCommand(wifiCmd)
	rootCmd.AddCommand(positionCmd)
}

func initLogging(cfg config.LogConfig) {
	log.Init(log.Config{
		Level:      log.Level(cfg.Level),
		JSONOutput: cfg.JSON,
	})
}
