package reconciler

import (
	"time"

	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

// OfflineAfter is how long the tracker may stay silent before a viewer should
// consider it gone, as opposed to merely fix-less.
const OfflineAfter = 60 * time.Second

// Classify turns the stored fix state and the current time into the
// three-state connectivity verdict the viewer shows. A tracker that reaches
// the server without satellite lock is NoSignal, never Offline; Offline means
// the link itself is dead (power, WiFi, crash).
func Classify(fix *types.Fix, now time.Time) types.Staleness {
	if fix == nil || now.Sub(fix.LastPacketAt) > OfflineAfter {
		return types.StalenessOffline
	}
	if !fix.HasFix {
		return types.StalenessNoSignal
	}
	return types.StalenessOnline
}
