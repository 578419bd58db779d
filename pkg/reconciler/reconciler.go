package reconciler

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

// ErrInvalidPacket marks a packet that claims a fix but is missing a required
// numeric field or carries a non-finite one. Such packets are rejected before
// any state is touched.
var ErrInvalidPacket = errors.New("invalid packet")

// Reconcile applies one incoming packet to the prior fix state and returns the
// new state. It is a pure function: no I/O, no clock reads, prior is never
// mutated.
//
// Rules:
//   - position fields (lat/lng/speed/alt) are overwritten only when the packet
//     carries a fix; a no-fix packet leaves them at their last-known values
//   - LastFixAt advances only on fix packets, LastPacketAt on every packet
//   - diagnostic fields are overwritten only when present in the packet;
//     absence carries the previous value forward
//   - a nil prior is the bootstrap case, not an error
func Reconcile(prior *types.Fix, pkt *types.Packet, now time.Time) (*types.Fix, error) {
	if err := Validate(pkt); err != nil {
		return nil, err
	}

	next := prior.Clone()
	if next == nil {
		next = &types.Fix{}
	}

	if pkt.HasFix {
		next.Lat = pkt.Lat
		next.Lng = pkt.Lng
		next.Speed = pkt.Speed
		next.Alt = pkt.Alt
		fixedAt := now
		next.LastFixAt = &fixedAt
	}

	next.HasFix = pkt.HasFix
	next.LastPacketAt = now

	if pkt.SatelliteCount != nil {
		next.SatelliteCount = pkt.SatelliteCount
	}
	if pkt.HorizontalDilution != nil {
		next.HorizontalDilution = pkt.HorizontalDilution
	}

	return next, nil
}

// Validate checks a packet against the schema rules. Fix packets must carry
// all four position fields as finite numbers; diagnostic fields must be finite
// whenever present.
func Validate(pkt *types.Packet) error {
	if pkt == nil {
		return fmt.Errorf("%w: empty packet", ErrInvalidPacket)
	}

	if pkt.HasFix {
		required := map[string]*float64{
			"lat":   pkt.Lat,
			"lng":   pkt.Lng,
			"speed": pkt.Speed,
			"alt":   pkt.Alt,
		}
		for name, field := range required {
			if field == nil {
				return fmt.Errorf("%w: fix packet missing %s", ErrInvalidPacket, name)
			}
			if !isFinite(*field) {
				return fmt.Errorf("%w: %s is not finite", ErrInvalidPacket, name)
			}
		}
	}

	if pkt.HorizontalDilution != nil && !isFinite(*pkt.HorizontalDilution) {
		return fmt.Errorf("%w: horizontal_dilution is not finite", ErrInvalidPacket)
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
