package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

var (
	// ErrUnauthorized means the shared secret was rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidPacket means the server rejected the packet as malformed.
	ErrInvalidPacket = errors.New("packet rejected")
	// ErrNoFix means no fix has ever been recorded server-side.
	ErrNoFix = errors.New("no fix recorded")
)

// Client talks to the follower server. Every request carries the shared
// secret and a bounded timeout so the tracker loop can never hang on a dead
// link.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithTimeout overrides the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.http.Timeout = timeout
	return c
}

// PushPacket sends one telemetry packet and returns the server's
// acknowledgement, which echoes the has_fix interpretation.
func (c *Client) PushPacket(ctx context.Context, pkt *types.Packet) (*types.IngestAck, error) {
	var ack types.IngestAck
	if err := c.do(ctx, http.MethodPost, "/receivedata", true, pkt, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// FetchNetworks pulls the current credential list.
func (c *Client) FetchNetworks(ctx context.Context) ([]types.WifiNetwork, error) {
	var networks []types.WifiNetwork
	if err := c.do(ctx, http.MethodGet, "/wifi", true, nil, &networks); err != nil {
		return nil, err
	}
	return networks, nil
}

// UpsertNetwork adds or updates a credential and returns the full list.
func (c *Client) UpsertNetwork(ctx context.Context, ssid, password string) ([]types.WifiNetwork, error) {
	var networks []types.WifiNetwork
	network := types.WifiNetwork{SSID: ssid, Password: password}
	if err := c.do(ctx, http.MethodPost, "/wifi", true, network, &networks); err != nil {
		return nil, err
	}
	return networks, nil
}

// RemoveNetwork deletes a credential and returns the full list. Removing an
// unknown SSID is not an error.
func (c *Client) RemoveNetwork(ctx context.Context, ssid string) ([]types.WifiNetwork, error) {
	var networks []types.WifiNetwork
	path := "/wifi/" + url.PathEscape(ssid)
	if err := c.do(ctx, http.MethodDelete, path, true, nil, &networks); err != nil {
		return nil, err
	}
	return networks, nil
}

// Staleness reads the server's freshness classification of the record.
func (c *Client) Staleness(ctx context.Context) (types.Staleness, error) {
	var status struct {
		Staleness types.Staleness `json:"staleness"`
	}
	if err := c.do(ctx, http.MethodGet, "/status", false, nil, &status); err != nil {
		return "", err
	}
	return status.Staleness, nil
}

// LatestFix reads the current record, or ErrNoFix if none was ever ingested.
func (c *Client) LatestFix(ctx context.Context) (*types.Fix, error) {
	var fix types.Fix
	if err := c.do(ctx, http.MethodGet, "/data", false, nil, &fix); err != nil {
		return nil, err
	}
	return &fix, nil
}

func (c *Client) do(ctx context.Context, method, path string, withSecret bool, in, out any) error {
	u := c.baseURL + path
	if withSecret {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + "key=" + url.QueryEscape(c.secret)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidPacket, readError(resp.Body))
	case http.StatusNotFound:
		return ErrNoFix
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readError(resp.Body))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readError(r io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&e); err != nil || e.Error == "" {
		return "no detail"
	}
	return e.Error
}
