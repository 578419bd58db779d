/*
Package reconciler holds the two pure state-transition functions at the heart
of the follower.

Reconcile decides what an incoming telemetry packet is allowed to change:
fix packets update the authoritative position, no-fix packets only update
liveness and diagnostics. This split is what keeps the last known position on
screen while the tracker sits under a roof without satellite lock.

Classify turns the stored state plus the current time into the three-way
verdict (online / no signal / offline) that the viewer renders. Both functions
are free of I/O and clock reads so their contracts can be tested exhaustively.
*/
package reconciler
