package gps

import (
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// knotsToKmh converts speed over ground from NMEA knots.
const knotsToKmh = 1.852

// decoder folds a stream of NMEA sentences into the current reading. RMC
// carries position, speed and validity; GGA carries altitude and the
// diagnostic fields. A reading is (re)published on every RMC, merged with the
// most recent GGA data.
type decoder struct {
	now func() time.Time

	alt  float64
	sats *int
	hdop *float64

	reading Reading
	have    bool
}

func newDecoder(now func() time.Time) *decoder {
	if now == nil {
		now = time.Now
	}
	return &decoder{now: now}
}

// feed decodes one line. It returns true when a new reading was published.
func (d *decoder) feed(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return false
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		// Partial sentences and receiver noise are routine; skip quietly
		return false
	}

	switch s := sentence.(type) {
	case nmea.GGA:
		d.alt = s.Altitude
		sats := int(s.NumSatellites)
		d.sats = &sats
		hdop := s.HDOP
		d.hdop = &hdop
		return false

	case nmea.RMC:
		d.reading = Reading{
			Lat:            s.Latitude,
			Lng:            s.Longitude,
			SpeedKmh:       s.Speed * knotsToKmh,
			AltM:           d.alt,
			Valid:          s.Validity == nmea.ValidRMC,
			SatelliteCount: d.sats,
			HDOP:           d.hdop,
			At:             d.now(),
		}
		d.have = true
		return true
	}

	return false
}

func (d *decoder) latest() (Reading, bool) {
	return d.reading, d.have
}
