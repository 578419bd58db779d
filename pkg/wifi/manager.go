package wifi

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/log"
	"github.com/Qetrox/esp32-gps-follower/pkg/metrics"
	"github.com/Qetrox/esp32-gps-follower/pkg/storage"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

// State is the connectivity state machine's current position.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateBackoff      State = "backoff"
)

// Default design values, carried over from the deployed firmware.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultBackoffWindow  = 30 * time.Second
)

// Controller abstracts the platform's WiFi operations. Connect must respect
// the context deadline; Up must be a cheap link check.
type Controller interface {
	Connect(ctx context.Context, ssid, password string) error
	Up(ctx context.Context) bool
}

// NetworkSource pulls the server's credential list. The client package
// satisfies this.
type NetworkSource interface {
	FetchNetworks(ctx context.Context) ([]types.WifiNetwork, error)
}

// Manager owns the WiFi network list and connection lifecycle. It is driven
// synchronously by the tracker's single control loop; it is not safe for
// concurrent use and does not need to be.
type Manager struct {
	controller Controller
	store      storage.Store // nil when local storage failed to mount
	remote     NetworkSource // nil when running without a server
	fallback   types.WifiNetwork

	connectTimeout time.Duration
	backoffWindow  time.Duration
	now            func() time.Time

	state        State
	currentSSID  string
	backoffUntil time.Time

	logger zerolog.Logger
}

// Config holds manager configuration
type Config struct {
	Controller Controller
	Store      storage.Store
	Remote     NetworkSource
	Fallback   types.WifiNetwork

	ConnectTimeout time.Duration
	BackoffWindow  time.Duration
	Now            func() time.Time
}

// NewManager creates a connectivity manager in the Disconnected state.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg.Controller == nil {
		return nil, errors.New("wifi manager requires a controller")
	}
	if cfg.Fallback.SSID == "" {
		return nil, errors.New("wifi manager requires a fallback network")
	}

	m := &Manager{
		controller:     cfg.Controller,
		store:          cfg.Store,
		remote:         cfg.Remote,
		fallback:       cfg.Fallback,
		connectTimeout: cfg.ConnectTimeout,
		backoffWindow:  cfg.BackoffWindow,
		now:            cfg.Now,
		state:          StateDisconnected,
		logger:         log.WithComponent("wifi"),
	}
	if m.connectTimeout <= 0 {
		m.connectTimeout = DefaultConnectTimeout
	}
	if m.backoffWindow <= 0 {
		m.backoffWindow = DefaultBackoffWindow
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// State returns the machine's current state.
func (m *Manager) State() State {
	return m.state
}

// CurrentSSID returns the network of the active connection, or "" when not
// connected.
func (m *Manager) CurrentSSID() string {
	if m.state != StateConnected {
		return ""
	}
	return m.currentSSID
}

// EnsureConnected drives the state machine one step. Called once per loop
// cycle; it returns the resulting state.
//
// Connected is only left when the link check fails, never because of a
// failed upstream request. A full candidate pass that fails lands in Backoff
// for a flat cool-down window, after which the candidate list is recomputed
// from local storage and tried again.
func (m *Manager) EnsureConnected(ctx context.Context) State {
	switch m.state {
	case StateConnected:
		if m.controller.Up(ctx) {
			return StateConnected
		}
		m.logger.Warn().Str("ssid", m.currentSSID).Msg("link lost")
		m.state = StateDisconnected
		m.currentSSID = ""
		return m.connectPass(ctx)

	case StateBackoff:
		if m.now().Before(m.backoffUntil) {
			return StateBackoff
		}
		return m.connectPass(ctx)

	default:
		return m.connectPass(ctx)
	}
}

// connectPass tries every candidate once, stored networks first, the
// hardcoded fallback last. Succeeding on the fallback means the learned list
// is stale or exhausted, so that is the one case that triggers an immediate
// resync from the server.
func (m *Manager) connectPass(ctx context.Context) State {
	m.state = StateConnecting

	for _, candidate := range m.candidates() {
		if ctx.Err() != nil {
			m.state = StateDisconnected
			return m.state
		}

		if !m.tryConnect(ctx, candidate) {
			continue
		}

		m.state = StateConnected
		m.currentSSID = candidate.SSID
		m.logger.Info().Str("ssid", candidate.SSID).Msg("connected")

		if candidate.SSID == m.fallback.SSID {
			m.RefreshNetworks(ctx)
		}
		return StateConnected
	}

	m.logger.Warn().Dur("window", m.backoffWindow).Msg("no network reachable, backing off")
	m.state = StateBackoff
	m.backoffUntil = m.now().Add(m.backoffWindow)
	return StateBackoff
}

func (m *Manager) tryConnect(ctx context.Context, candidate types.WifiNetwork) bool {
	m.logger.Debug().Str("ssid", candidate.SSID).Msg("trying network")

	attemptCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	if err := m.controller.Connect(attemptCtx, candidate.SSID, candidate.Password); err != nil {
		metrics.ConnectAttemptsTotal.WithLabelValues("failed").Inc()
		m.logger.Debug().Err(err).Str("ssid", candidate.SSID).Msg("connect failed")
		return false
	}
	metrics.ConnectAttemptsTotal.WithLabelValues("ok").Inc()
	return true
}

// candidates recomputes the attempt order from current local storage:
// every learned network in stored order, then the fallback.
func (m *Manager) candidates() []types.WifiNetwork {
	var learned []types.WifiNetwork
	if m.store != nil {
		var err error
		learned, err = m.store.GetNetworks()
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn().Err(err).Msg("failed to load learned networks")
		}
	}
	return append(learned, m.fallback)
}

// RefreshNetworks pulls the credential list from the server and persists it
// locally right away, so a reboot can recover learned networks without
// server reachability. Failures are logged and left for the next trigger.
func (m *Manager) RefreshNetworks(ctx context.Context) {
	if m.remote == nil {
		return
	}

	networks, err := m.remote.FetchNetworks(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("credential list refresh failed")
		return
	}
	m.logger.Info().Int("count", len(networks)).Msg("credential list refreshed")

	if m.store == nil {
		return
	}
	if err := m.store.PutNetworks(networks); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist credential list")
	}
}
