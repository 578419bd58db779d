package types

import (
	"encoding/json"
	"time"
)

// Staleness classifies how recently the tracker has been heard from.
type Staleness string

const (
	// StalenessOnline means the tracker is reporting and its latest packet
	// carried a valid GPS fix.
	StalenessOnline Staleness = "online"
	// StalenessNoSignal means the tracker is reporting but has lost
	// satellite lock.
	StalenessNoSignal Staleness = "no_signal"
	// StalenessOffline means no packet of any kind has arrived recently.
	StalenessOffline Staleness = "offline"
)

// Fix is the authoritative last-known-position record. There is exactly one
// per deployment; it is absent (not zero-valued) until the first packet ever
// arrives.
//
// Position and kinematic fields are pointers because they stay nil until the
// first packet that carries a valid fix. A no-fix packet never touches them.
type Fix struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Speed *float64 `json:"speed"` // km/h over ground
	Alt   *float64 `json:"alt"`   // meters above sea level

	// HasFix reports whether the most recent packet carried a valid fix,
	// regardless of whether position fields hold values from older packets.
	HasFix bool `json:"has_fix"`

	// Diagnostic fields, mainly meaningful on no-fix packets. Overwritten
	// only when the incoming packet actually carries them.
	SatelliteCount     *int     `json:"satellite_count"`
	HorizontalDilution *float64 `json:"horizontal_dilution"`

	// LastPacketAt is the receipt time of the most recent packet of any kind.
	LastPacketAt time.Time `json:"last_packet_at"`
	// LastFixAt is the receipt time of the most recent packet that carried a
	// valid fix. Invariant: LastFixAt is never after LastPacketAt.
	LastFixAt *time.Time `json:"last_fix_at"`
}

// Clone returns a deep copy. The manager swaps whole records atomically, so
// mutation always happens on a copy.
func (f *Fix) Clone() *Fix {
	if f == nil {
		return nil
	}
	c := *f
	c.Lat = clonePtr(f.Lat)
	c.Lng = clonePtr(f.Lng)
	c.Speed = clonePtr(f.Speed)
	c.Alt = clonePtr(f.Alt)
	c.SatelliteCount = clonePtr(f.SatelliteCount)
	c.HorizontalDilution = clonePtr(f.HorizontalDilution)
	c.LastFixAt = clonePtr(f.LastFixAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Packet is one telemetry report from the tracker.
//
// When HasFix is true, Lat/Lng/Speed/Alt are required and must be finite.
// SatelliteCount and HorizontalDilution are independently optional on either
// packet kind; a nil field means "no new value", not "clear".
type Packet struct {
	HasFix bool     `json:"has_fix"`
	Lat    *float64 `json:"lat,omitempty"`
	Lng    *float64 `json:"lng,omitempty"`
	Speed  *float64 `json:"speed,omitempty"`
	Alt    *float64 `json:"alt,omitempty"`

	SatelliteCount     *int     `json:"satellite_count,omitempty"`
	HorizontalDilution *float64 `json:"horizontal_dilution,omitempty"`
}

// WifiNetwork is one entry in the server-managed credential list the tracker
// syncs against. SSID is the unique key; list order carries no meaning.
type WifiNetwork struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// IngestAck confirms the server-side interpretation of a pushed packet so the
// tracker can log what the server actually recorded.
type IngestAck struct {
	Status string `json:"status"`
	HasFix bool   `json:"has_fix"`
}

// POIList and UIConfig are opaque pass-through documents owned by the web
// client. The server enforces nothing beyond valid JSON.
type (
	POIList  = json.RawMessage
	UIConfig = json.RawMessage
)
