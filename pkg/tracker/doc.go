/*
Package tracker runs the on-device reporting agent.

The agent is one synchronous loop on a fixed tick: repair connectivity via
the wifi manager, sample the newest decoded GPS reading, push it to the
server. Readings older than the freshness gate are dropped instead of
uploaded, so the server never receives a position the GPS has silently
stopped standing behind. Push failures are counted and dropped; the next
cycle carries a fresher sample anyway, so there is nothing worth retrying.
*/
package tracker
