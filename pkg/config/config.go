package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the tracking server.
type ServerConfig struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`
	// Secret gates ingest and every credential operation.
	Secret string `yaml:"secret"`
	// DataDir holds the document database.
	DataDir string `yaml:"data_dir"`
	// StaticDir optionally serves a map viewer; empty disables it.
	StaticDir string `yaml:"static_dir,omitempty"`

	// MQTTBroker optionally mirrors accepted fixes, e.g.
	// "tcp://localhost:1883". Empty disables the mirror.
	MQTTBroker string `yaml:"mqtt_broker,omitempty"`
	MQTTTopic  string `yaml:"mqtt_topic,omitempty"`

	Log LogConfig `yaml:"log"`
}

// TrackerConfig configures the on-device agent.
type TrackerConfig struct {
	// ServerURL is the ingest endpoint base, e.g. "http://example.com:8080".
	ServerURL string `yaml:"server_url"`
	Secret    string `yaml:"secret"`
	// DataDir persists the learned WiFi credential list across reboots.
	DataDir string `yaml:"data_dir"`

	SerialPort string `yaml:"serial_port"`
	BaudRate   uint   `yaml:"baud_rate"`
	// WifiIface restricts nmcli to one interface, e.g. "wlan0".
	WifiIface string `yaml:"wifi_iface,omitempty"`

	FallbackSSID     string `yaml:"fallback_ssid"`
	FallbackPassword string `yaml:"fallback_password"`

	Interval       Duration `yaml:"interval,omitempty"`
	MaxGPSAge      Duration `yaml:"max_gps_age,omitempty"`
	ConnectTimeout Duration `yaml:"connect_timeout,omitempty"`
	BackoffWindow  Duration `yaml:"backoff_window,omitempty"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

// DefaultServer returns a server config with design defaults applied.
func DefaultServer() *ServerConfig {
	return &ServerConfig{
		ListenAddr: ":8080",
		DataDir:    "/var/lib/gpsfollower",
		MQTTTopic:  "gpsfollower/fix",
		Log:        LogConfig{Level: "info"},
	}
}

// DefaultTracker returns a tracker config with design defaults applied.
func DefaultTracker() *TrackerConfig {
	return &TrackerConfig{
		DataDir:    "/var/lib/gpsfollower",
		SerialPort: "/dev/ttyUSB0",
		BaudRate:   9600,
		Log:        LogConfig{Level: "info"},
	}
}

// LoadServer reads a server config file over the defaults. An empty path
// returns the defaults untouched.
func LoadServer(path string) (*ServerConfig, error) {
	cfg := DefaultServer()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTracker reads a tracker config file over the defaults.
func LoadTracker(path string) (*TrackerConfig, error) {
	cfg := DefaultTracker()
	if err := load(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}
