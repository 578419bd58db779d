/*
Package wifi implements the tracker's connectivity-recovery state machine.

The machine cycles Disconnected -> Connecting -> Connected, with a Backoff
state after a full failed pass over the candidate list. Candidates are the
learned networks from local storage, in stored order, then a hardcoded
fallback. Each attempt gets a flat bounded timeout; there is no exponential
backoff, just one fixed cool-down before the whole list is retried. That
keeps a battery powered node responsive after a brief outage without
busy-looping against an access point that is gone for good.

Connecting via the fallback is the signal that the learned list no longer
works, so that success (and only that one) triggers an immediate credential
resync from the server. Refreshed lists are persisted before anything else
happens, so the next boot does not depend on server reachability.

The machine is driven synchronously from the tracker's single control loop;
it deliberately has no internal goroutines or locks.
*/
package wifi
