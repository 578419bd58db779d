package gps

import (
	"time"
)

// Reading is one GPS sample. Valid mirrors the receiver's own fix validity:
// an invalid reading still carries satellite count and dilution, which is
// exactly what the server wants on a no-fix packet.
type Reading struct {
	Lat      float64
	Lng      float64
	SpeedKmh float64
	AltM     float64

	Valid          bool
	SatelliteCount *int
	HDOP           *float64

	// At is when the sample was decoded, used for the freshness gate.
	At time.Time
}

// Age returns how old the reading is.
func (r Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.At)
}

// Source provides the most recent GPS sample without blocking. The tracker
// loop polls it once per cycle.
type Source interface {
	// Latest returns the newest decoded reading. ok is false until the first
	// sentence ever decodes.
	Latest() (reading Reading, ok bool)
}
