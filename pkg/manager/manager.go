package manager

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Qetrox/esp32-gps-follower/pkg/events"
	"github.com/Qetrox/esp32-gps-follower/pkg/log"
	"github.com/Qetrox/esp32-gps-follower/pkg/metrics"
	"github.com/Qetrox/esp32-gps-follower/pkg/reconciler"
	"github.com/Qetrox/esp32-gps-follower/pkg/storage"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

// ErrNoFix is returned by LatestFix before any packet has ever been ingested.
var ErrNoFix = errors.New("no fix recorded")

// Manager owns the server-side state: the in-memory fix singleton, the
// credential list, and the pass-through documents. It is the only writer of
// the fix; readers get a consistent snapshot through an atomic pointer.
type Manager struct {
	store  storage.Store
	broker *events.Broker
	logger zerolog.Logger

	// fix holds the authoritative record; nil until the first packet ever.
	// Replaced wholesale on each ingest so readers never see a torn update.
	fix atomic.Pointer[types.Fix]

	// ingestMu serializes ingest so persisted documents cannot interleave.
	// Independent of networksMu: fix and credentials are separate keys.
	ingestMu   sync.Mutex
	networksMu sync.Mutex

	now func() time.Time
}

// Config holds configuration for creating a Manager
type Config struct {
	Store  storage.Store
	Broker *events.Broker

	// Now is the clock, overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// NewManager creates a Manager and hydrates the fix from durable storage so a
// restart resumes from the last known position instead of empty state.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("manager requires a store")
	}

	m := &Manager{
		store:  cfg.Store,
		broker: cfg.Broker,
		logger: log.WithComponent("manager"),
		now:    cfg.Now,
	}
	if m.now == nil {
		m.now = time.Now
	}

	fix, err := cfg.Store.GetFix()
	switch {
	case err == nil:
		m.fix.Store(fix)
		m.logger.Info().Time("last_packet_at", fix.LastPacketAt).Msg("hydrated fix from storage")
	case errors.Is(err, storage.ErrNotFound):
		// First boot, nothing recorded yet
	default:
		return nil, fmt.Errorf("failed to hydrate fix: %w", err)
	}

	metrics.RegisterComponent("storage", true, "")
	return m, nil
}

// Ingest runs one packet through the reconciler, swaps the in-memory record
// and persists the result. A failed durable write is logged and counted but
// the call still succeeds: within process lifetime the in-memory record is
// the source of truth for reads, and losing the very latest fix across a
// crash was judged acceptable.
func (m *Manager) Ingest(pkt *types.Packet) (*types.Fix, error) {
	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()

	next, err := reconciler.Reconcile(m.fix.Load(), pkt, m.now())
	if err != nil {
		metrics.PacketsTotal.WithLabelValues("invalid").Inc()
		m.publish(&events.Event{Type: events.EventPacketRejected, Message: err.Error()})
		return nil, err
	}

	m.fix.Store(next)

	metrics.PacketsTotal.WithLabelValues("ok").Inc()
	if pkt.HasFix {
		metrics.FixesTotal.Inc()
	}

	if err := m.store.PutFix(next); err != nil {
		metrics.StorageFailuresTotal.Inc()
		metrics.RegisterComponent("storage", false, err.Error())
		m.logger.Error().Err(err).Msg("durable fix write failed, in-memory state kept")
	} else {
		metrics.RegisterComponent("storage", true, "")
	}

	m.publish(&events.Event{Type: events.EventFixUpdated, Fix: next.Clone()})
	return next, nil
}

// LatestFix returns a snapshot of the current record, or ErrNoFix if no
// packet has ever been ingested.
func (m *Manager) LatestFix() (*types.Fix, error) {
	fix := m.fix.Load()
	if fix == nil {
		return nil, ErrNoFix
	}
	return fix.Clone(), nil
}

// Classify reports the current staleness verdict for the tracker.
func (m *Manager) Classify() types.Staleness {
	return reconciler.Classify(m.fix.Load(), m.now())
}

// Networks returns the stored credential list. An empty list is not an error;
// a list that was never written reads as empty.
func (m *Manager) Networks() ([]types.WifiNetwork, error) {
	networks, err := m.store.GetNetworks()
	if errors.Is(err, storage.ErrNotFound) {
		return []types.WifiNetwork{}, nil
	}
	return networks, err
}

// UpsertNetwork replaces the password of an existing SSID or appends a new
// entry, persists the whole list, and returns it.
func (m *Manager) UpsertNetwork(ssid, password string) ([]types.WifiNetwork, error) {
	if ssid == "" {
		return nil, fmt.Errorf("ssid must not be empty")
	}

	m.networksMu.Lock()
	defer m.networksMu.Unlock()

	networks, err := m.Networks()
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range networks {
		if networks[i].SSID == ssid {
			networks[i].Password = password
			replaced = true
			break
		}
	}
	if !replaced {
		networks = append(networks, types.WifiNetwork{SSID: ssid, Password: password})
	}

	if err := m.store.PutNetworks(networks); err != nil {
		return nil, fmt.Errorf("failed to persist networks: %w", err)
	}

	m.publish(&events.Event{Type: events.EventNetworkUpsert, Message: ssid})
	return networks, nil
}

// RemoveNetwork deletes an SSID from the list and returns the updated list.
// Removing an SSID that is not present succeeds and changes nothing.
func (m *Manager) RemoveNetwork(ssid string) ([]types.WifiNetwork, error) {
	m.networksMu.Lock()
	defer m.networksMu.Unlock()

	networks, err := m.Networks()
	if err != nil {
		return nil, err
	}

	kept := networks[:0]
	removed := false
	for _, n := range networks {
		if n.SSID == ssid {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	if !removed {
		return networks, nil
	}

	if err := m.store.PutNetworks(kept); err != nil {
		return nil, fmt.Errorf("failed to persist networks: %w", err)
	}

	m.publish(&events.Event{Type: events.EventNetworkRemoved, Message: ssid})
	return kept, nil
}

// POIs returns the opaque POI document. Never written reads as an empty array.
func (m *Manager) POIs() (types.POIList, error) {
	pois, err := m.store.GetPOIs()
	if errors.Is(err, storage.ErrNotFound) {
		return types.POIList(`[]`), nil
	}
	return pois, err
}

// UIConfig returns the opaque UI configuration document.
func (m *Manager) UIConfig() (types.UIConfig, error) {
	cfg, err := m.store.GetUIConfig()
	if errors.Is(err, storage.ErrNotFound) {
		return types.UIConfig(`{}`), nil
	}
	return cfg, err
}

// SetUIConfig overwrites the UI configuration document.
func (m *Manager) SetUIConfig(cfg types.UIConfig) error {
	return m.store.PutUIConfig(cfg)
}

// SetPOIs overwrites the POI document.
func (m *Manager) SetPOIs(pois types.POIList) error {
	return m.store.PutPOIs(pois)
}

func (m *Manager) publish(ev *events.Event) {
	if m.broker != nil {
		m.broker.Publish(ev)
	}
}
