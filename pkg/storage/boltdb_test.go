package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func floatPtr(v float64) *float64 { return &v }

func TestGetFixNotFound(t *testing.T) {
	store := newTestStore(t)

	fix, err := store.GetFix()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, fix)
}

func TestFixRoundTrip(t *testing.T) {
	store := newTestStore(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := &types.Fix{
		Lat:          floatPtr(52.1),
		Lng:          floatPtr(4.9),
		Speed:        floatPtr(3.2),
		Alt:          floatPtr(12.5),
		HasFix:       true,
		LastPacketAt: at,
		LastFixAt:    &at,
	}
	require.NoError(t, store.PutFix(in))

	out, err := store.GetFix()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFixOverwriteWholesale(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutFix(&types.Fix{Lat: floatPtr(1), HasFix: true}))
	require.NoError(t, store.PutFix(&types.Fix{HasFix: false}))

	out, err := store.GetFix()
	require.NoError(t, err)
	// The second write replaced the document; nothing merged
	assert.Nil(t, out.Lat)
	assert.False(t, out.HasFix)
}

func TestNetworksRoundTrip(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetNetworks()
	assert.ErrorIs(t, err, ErrNotFound)

	in := []types.WifiNetwork{
		{SSID: "garden", Password: "begonia"},
		{SSID: "barn", Password: "hayloft"},
	}
	require.NoError(t, store.PutNetworks(in))

	out, err := store.GetNetworks()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestPutNetworksNilMeansEmpty(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutNetworks(nil))

	out, err := store.GetNetworks()
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestOpaqueDocuments(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPOIs()
	assert.ErrorIs(t, err, ErrNotFound)

	pois := json.RawMessage(`[{"name":"gate","lat":52.0,"lng":4.8}]`)
	require.NoError(t, store.PutPOIs(pois))
	got, err := store.GetPOIs()
	require.NoError(t, err)
	assert.JSONEq(t, string(pois), string(got))

	cfg := json.RawMessage(`{"title":"sheep one"}`)
	require.NoError(t, store.PutUIConfig(cfg))
	gotCfg, err := store.GetUIConfig()
	require.NoError(t, err)
	assert.JSONEq(t, string(cfg), string(gotCfg))
}
