/*
Package metrics defines the Prometheus instrumentation for both binaries.

All collectors are package-level and registered in init, following the usual
client_golang pattern: handlers and loops increment them directly, and the
server mounts Handler() at /metrics. The tracker shares the same package so
its connection attempts and push failures use the same naming scheme, even
though it does not normally expose a scrape endpoint.

The health side (RegisterComponent, HealthHandler) is a minimal liveness
report: components post their status, /healthz aggregates it.
*/
package metrics
