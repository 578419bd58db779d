/*
Package manager implements the server-side state owner.

The manager holds the single last-known-position record in an atomic pointer:
ingest builds a fresh record through the reconciler and swaps the pointer, so
a concurrent read returns either the pre- or post-update snapshot but never a
torn record. The record is mirrored to durable storage after every swap;
persistence failure is deliberately not surfaced to the tracker (availability
over strict durability), only logged and counted.

It also acts as the credential distributor: the WiFi list lives in storage as
one document with upsert-by-SSID semantics, guarded by its own mutex since
credentials and position are independent resources with independent freshness.
*/
package manager
