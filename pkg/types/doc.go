/*
Package types defines the core data structures shared by the server and the
tracker agent.

The central type is Fix, the single last-known-position record. It deliberately
separates three concerns that a naive design would collapse into one timestamp:

  - position fields (Lat, Lng, Speed, Alt), updated only by packets that carry
    a valid GPS fix
  - HasFix, whether the most recent packet carried a fix
  - LastPacketAt vs LastFixAt, liveness of the link vs freshness of the
    position

This is what lets a viewer distinguish "tracker online but under a roof"
(recent packet, HasFix false) from "tracker dark" (no recent packet at all).
Packets therefore carry an explicit HasFix flag rather than using null
coordinates as a sentinel.

All types serialize to JSON; whole documents are overwritten on every write,
so consumers may assume atomic visibility of complete records.
*/
package types
