package wifi

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qetrox/esp32-gps-follower/pkg/storage"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

type fakeController struct {
	reachable map[string]bool
	attempts  []string
	deadlines []bool
	up        bool
}

func (f *fakeController) Connect(ctx context.Context, ssid, password string) error {
	f.attempts = append(f.attempts, ssid)
	_, hasDeadline := ctx.Deadline()
	f.deadlines = append(f.deadlines, hasDeadline)
	if f.reachable[ssid] {
		return nil
	}
	return errors.New("association failed")
}

func (f *fakeController) Up(ctx context.Context) bool {
	return f.up
}

type fakeRemote struct {
	networks []types.WifiNetwork
	err      error
	calls    int
}

func (f *fakeRemote) FetchNetworks(ctx context.Context) ([]types.WifiNetwork, error) {
	f.calls++
	return f.networks, f.err
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "tracker"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestManager(t *testing.T, ctrl Controller, store storage.Store, remote NetworkSource, clock *fakeClock) *Manager {
	t.Helper()
	m, err := NewManager(&Config{
		Controller: ctrl,
		Store:      store,
		Remote:     remote,
		Fallback:   types.WifiNetwork{SSID: "fallback-net", Password: "fallback-pass"},
		Now:        clock.Now,
	})
	require.NoError(t, err)
	return m
}

func TestEnsureConnectedTriesStoredNetworksBeforeFallback(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutNetworks([]types.WifiNetwork{
		{SSID: "home", Password: "a"},
		{SSID: "office", Password: "b"},
	}))

	ctrl := &fakeController{reachable: map[string]bool{"office": true}}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, ctrl, store, nil, clock)

	state := m.EnsureConnected(context.Background())
	assert.Equal(t, StateConnected, state)
	assert.Equal(t, []string{"home", "office"}, ctrl.attempts)
	assert.Equal(t, "office", m.CurrentSSID())
	for _, hasDeadline := range ctrl.deadlines {
		assert.True(t, hasDeadline, "each attempt must carry a deadline")
	}
}

func TestFallbackSuccessTriggersCredentialRefresh(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutNetworks([]types.WifiNetwork{{SSID: "home", Password: "a"}}))

	ctrl := &fakeController{reachable: map[string]bool{"fallback-net": true}}
	remote := &fakeRemote{networks: []types.WifiNetwork{
		{SSID: "home", Password: "rotated"},
		{SSID: "new-site", Password: "c"},
	}}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, ctrl, store, remote, clock)

	state := m.EnsureConnected(context.Background())
	assert.Equal(t, StateConnected, state)
	assert.Equal(t, 1, remote.calls)

	persisted, err := store.GetNetworks()
	require.NoError(t, err)
	assert.Equal(t, remote.networks, persisted)
}

func TestLearnedNetworkSuccessDoesNotRefresh(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutNetworks([]types.WifiNetwork{{SSID: "home", Password: "a"}}))

	ctrl := &fakeController{reachable: map[string]bool{"home": true}}
	remote := &fakeRemote{}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, ctrl, store, remote, clock)

	m.EnsureConnected(context.Background())
	assert.Equal(t, 0, remote.calls)
}

func TestExhaustedPassEntersBackoffForFlatWindow(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutNetworks([]types.WifiNetwork{{SSID: "home", Password: "a"}}))

	ctrl := &fakeController{reachable: map[string]bool{}}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, ctrl, store, nil, clock)

	state := m.EnsureConnected(context.Background())
	assert.Equal(t, StateBackoff, state)
	assert.Equal(t, []string{"home", "fallback-net"}, ctrl.attempts)
	assert.Empty(t, m.CurrentSSID())

	// Inside the window no attempts are made.
	clock.Advance(29 * time.Second)
	assert.Equal(t, StateBackoff, m.EnsureConnected(context.Background()))
	assert.Len(t, ctrl.attempts, 2)

	// Past the window the full list is retried.
	clock.Advance(2 * time.Second)
	ctrl.reachable["home"] = true
	assert.Equal(t, StateConnected, m.EnsureConnected(context.Background()))
	assert.Equal(t, "home", m.CurrentSSID())
}

func TestLinkLossForcesReconnectPass(t *testing.T) {
	ctrl := &fakeController{reachable: map[string]bool{"fallback-net": true}, up: true}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, ctrl, newTestStore(t), nil, clock)

	require.Equal(t, StateConnected, m.EnsureConnected(context.Background()))
	attemptsAfterConnect := len(ctrl.attempts)

	// Link stays up, no new attempts.
	assert.Equal(t, StateConnected, m.EnsureConnected(context.Background()))
	assert.Len(t, ctrl.attempts, attemptsAfterConnect)

	// Link drops, next cycle reconnects.
	ctrl.up = false
	assert.Equal(t, StateConnected, m.EnsureConnected(context.Background()))
	assert.Greater(t, len(ctrl.attempts), attemptsAfterConnect)
}

func TestRefreshFailureLeavesStoredNetworksUntouched(t *testing.T) {
	store := newTestStore(t)
	stored := []types.WifiNetwork{{SSID: "home", Password: "a"}}
	require.NoError(t, store.PutNetworks(stored))

	remote := &fakeRemote{err: errors.New("server unreachable")}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, &fakeController{}, store, remote, clock)

	m.RefreshNetworks(context.Background())

	persisted, err := store.GetNetworks()
	require.NoError(t, err)
	assert.Equal(t, stored, persisted)
}

func TestManagerWorksWithoutLocalStore(t *testing.T) {
	ctrl := &fakeController{reachable: map[string]bool{"fallback-net": true}}
	remote := &fakeRemote{networks: []types.WifiNetwork{{SSID: "home", Password: "a"}}}
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(t, ctrl, nil, remote, clock)

	assert.Equal(t, StateConnected, m.EnsureConnected(context.Background()))
	assert.Equal(t, []string{"fallback-net"}, ctrl.attempts)
	assert.Equal(t, 1, remote.calls)
}
