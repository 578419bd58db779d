package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Qetrox/esp32-gps-follower/pkg/client"
	"github.com/Qetrox/esp32-gps-follower/pkg/config"
	"github.com/Qetrox/esp32-gps-follower/pkg/gps"
	"github.com/Qetrox/esp32-gps-follower/pkg/log"
	"github.com/Qetrox/esp32-gps-follower/pkg/storage"
	"github.com/Qetrox/esp32-gps-follower/pkg/tracker"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
	"github.com/Qetrox/esp32-gps-follower/pkg/wifi"
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Run the on-device tracking agent",
	Long: `Run the on-device agent: decode NMEA from the serial GPS, keep WiFi
connected using the server-managed credential list, and push a position
packet every cycle.`,
	RunE: runTracker,
}

func init() {
	trackerCmd.Flags().String("config", "", "Path to tracker config file")
	trackerCmd.Flags().String("server", "", "Server base URL (overrides config)")
	trackerCmd.Flags().String("secret", "", "Shared secret (overrides config)")
	trackerCmd.Flags().String("serial", "", "Serial port (overrides config)")
}

func runTracker(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTracker(configPath)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("server"); v != "" {
		cfg.ServerURL = v
	}
	if v, _ := cmd.Flags().GetString("secret"); v != "" {
		cfg.Secret = v
	}
	if v, _ := cmd.Flags().GetString("serial"); v != "" {
		cfg.SerialPort = v
	}
	if cfg.ServerURL == "" || cfg.Secret == "" {
		return fmt.Errorf("server URL and shared secret are required")
	}
	if cfg.FallbackSSID == "" {
		return fmt.Errorf("a fallback WiFi network is required")
	}

	initLogging(cfg.Log)
	logger := log.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed local store degrades to memory-only operation. The node keeps
	// reporting; it just relearns credentials from the server after reboots.
	var store storage.Store
	if s, err := storage.NewBoltStore(cfg.DataDir); err != nil {
		logger.Warn().Err(err).Msg("local store unavailable, running without persistence")
	} else {
		store = s
		defer s.Close()
	}

	apiClient := client.NewClient(cfg.ServerURL, cfg.Secret)

	wifiMgr, err := wifi.NewManager(&wifi.Config{
		Controller:     &wifi.NmcliController{Iface: cfg.WifiIface},
		Store:          store,
		Remote:         apiClient,
		Fallback:       types.WifiNetwork{SSID: cfg.FallbackSSID, Password: cfg.FallbackPassword},
		ConnectTimeout: cfg.ConnectTimeout.Std(),
		BackoffWindow:  cfg.BackoffWindow.Std(),
	})
	if err != nil {
		return err
	}

	source := gps.NewSerialSource(cfg.SerialPort, cfg.BaudRate)
	go func() {
		if err := source.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("serial source stopped")
		}
	}()

	agent := tracker.NewAgent(&tracker.Config{
		GPS:          source,
		Connectivity: wifiMgr,
		Pusher:       apiClient,
		Interval:     cfg.Interval.Std(),
		MaxGPSAge:    cfg.MaxGPSAge.Std(),
	})

	if err := agent.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
