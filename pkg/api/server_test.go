package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qetrox/esp32-gps-follower/pkg/manager"
	"github.com/Qetrox/esp32-gps-follower/pkg/storage"
	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

const testSecret = "keyvalue"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mgr, err := manager.NewManager(&manager.Config{Store: store})
	require.NoError(t, err)

	srv, err := NewServer(&Config{Manager: mgr, Secret: testSecret})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestLatestFixBeforeAnyIngest(t *testing.T) {
	ts := newTestServer(t)

	// Explicit not-found, never an all-null record
	code := getJSON(t, ts, "/data", nil)
	assert.Equal(t, http.StatusNotFound, code)

	var status map[string]types.Staleness
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/status", &status))
	assert.Equal(t, types.StalenessOffline, status["staleness"])
}

func TestIngestRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp, body := postJSON(t, ts, "/receivedata?key="+testSecret,
		`{"has_fix":true,"lat":52.1,"lng":4.9,"speed":3.2,"alt":12.5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack types.IngestAck
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.Equal(t, "ok", ack.Status)
	assert.True(t, ack.HasFix)

	var fix types.Fix
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/data", &fix))
	assert.Equal(t, 52.1, *fix.Lat)
	assert.Equal(t, 4.9, *fix.Lng)
	assert.Equal(t, 3.2, *fix.Speed)
	assert.Equal(t, 12.5, *fix.Alt)
	assert.True(t, fix.HasFix)
	require.NotNil(t, fix.LastFixAt)
	assert.WithinDuration(t, time.Now(), *fix.LastFixAt, 5*time.Second)

	// Follow with a no-fix packet: position unchanged, liveness updated
	resp, body = postJSON(t, ts, "/receivedata?key="+testSecret,
		`{"has_fix":false,"satellite_count":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.False(t, ack.HasFix)

	require.Equal(t, http.StatusOK, getJSON(t, ts, "/data", &fix))
	assert.Equal(t, 52.1, *fix.Lat)
	assert.False(t, fix.HasFix)
	assert.Equal(t, 3, *fix.SatelliteCount)
}

func TestIngestQueryParameterForm(t *testing.T) {
	ts := newTestServer(t)

	// The firmware's GET push: no has_fix flag, all four position fields
	resp, err := http.Get(ts.URL + "/receivedata?key=" + testSecret +
		"&lat=52.100000&lng=4.900000&speed=3.20&alt=12.50&sats=7&hdop=1.1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fix types.Fix
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/data", &fix))
	assert.True(t, fix.HasFix)
	assert.Equal(t, 52.1, *fix.Lat)
	assert.Equal(t, 7, *fix.SatelliteCount)
	assert.Equal(t, 1.1, *fix.HorizontalDilution)
}

func TestIngestWrongSecret(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := postJSON(t, ts, "/receivedata?key=wrong",
		`{"has_fix":true,"lat":52.1,"lng":4.9,"speed":3.2,"alt":12.5}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Nothing was recorded
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/data", nil))
}

func TestIngestInvalidPacket(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := postJSON(t, ts, "/receivedata?key="+testSecret, `{"has_fix":true,"lat":52.1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, ts, "/receivedata?key="+testSecret, `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts, "/data", nil))
}

func TestWifiRequiresSecret(t *testing.T) {
	ts := newTestServer(t)

	// The credential list contains passwords; no unauthenticated reads
	assert.Equal(t, http.StatusForbidden, getJSON(t, ts, "/wifi", nil))

	resp, _ := postJSON(t, ts, "/wifi", `{"ssid":"a","password":"b"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWifiCRUD(t *testing.T) {
	ts := newTestServer(t)

	var list []types.WifiNetwork
	require.Equal(t, http.StatusOK, getJSON(t, ts, "/wifi?key="+testSecret, &list))
	assert.Empty(t, list)

	resp, body := postJSON(t, ts, "/wifi?key="+testSecret, `{"ssid":"garden","password":"x"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	// Upsert replaces the password, not the entry
	resp, body = postJSON(t, ts, "/wifi?key="+testSecret, `{"ssid":"garden","password":"y"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "y", list[0].Password)

	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/wifi/%s?key=%s", ts.URL, url.PathEscape("garden"), testSecret), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)
	require.NoError(t, json.NewDecoder(delResp.Body).Decode(&list))
	assert.Empty(t, list)

	// Removing a missing SSID succeeds and returns the unchanged list
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/wifi/missing?key="+testSecret, nil)
	require.NoError(t, err)
	delResp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
}

func TestPassThroughDocuments(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/poi")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `[]`, string(data))

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/uiconfig?key="+testSecret,
		strings.NewReader(`{"title":"sheep one"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	putResp.Body.Close()
	require.Equal(t, http.StatusOK, putResp.StatusCode)

	resp, err = http.Get(ts.URL + "/uiconfig")
	require.NoError(t, err)
	data, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"title":"sheep one"}`, string(data))

	// Writes without the secret are rejected
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/uiconfig", strings.NewReader(`{}`))
	putResp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	putResp.Body.Close()
	assert.Equal(t, http.StatusForbidden, putResp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusOK, getJSON(t, ts, "/healthz", nil))
}
