package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Qetrox/esp32-gps-follower/pkg/api"
	"github.com/Qetrox/esp32-gps-follower/pkg/config"
	"github.com/Qetrox/esp32-gps-follower/pkg/events"
	"github.com/Qetrox/esp32-gps-follower/pkg/manager"
	"github.com/Qetrox/esp32-gps-follower/pkg/metrics"
	"github.com/Qetrox/esp32-gps-follower/pkg/mqtt"
	"github.com/Qetrox/esp32-gps-follower/pkg/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the tracking server",
	Long: `Run the tracking server: HTTP ingest, last known position API,
WiFi credential distribution, and the live position websocket.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().String("config", "", "Path to server config file")
	serverCmd.Flags().String("listen", "", "HTTP bind address (overrides config)")
	serverCmd.Flags().String("secret", "", "Shared secret (overrides config)")
	serverCmd.Flags().String("data-dir", "", "Data directory (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.ListenAddr = v
	}
	if v, _ := cmd.Flags().GetString("secret"); v != "" {
		cfg.Secret = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if cfg.Secret == "" {
		return fmt.Errorf("a shared secret is required (--secret or config file)")
	}

	initLogging(cfg.Log)
	metrics.SetVersion(Version)

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	mgr, err := manager.NewManager(&manager.Config{Store: store, Broker: broker})
	if err != nil {
		return err
	}

	var mirror *mqtt.Mirror
	if cfg.MQTTBroker != "" {
		mirror, err = mqtt.NewMirror(cfg.MQTTBroker, cfg.MQTTTopic, broker)
		if err != nil {
			return fmt.Errorf("failed to start mqtt mirror: %w", err)
		}
		defer mirror.Stop()
	}

	server, err := api.NewServer(&api.Config{
		Manager:   mgr,
		Broker:    broker,
		Secret:    cfg.Secret,
		StaticDir: cfg.StaticDir,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
