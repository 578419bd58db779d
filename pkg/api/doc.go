/*
Package api exposes the follower over HTTP.

Routes fall into three trust tiers:

  - open viewer reads: /data (latest fix, 404 until the first packet ever),
    /status (server-computed staleness), /poi, /uiconfig, /ws, static files
  - shared-secret device traffic: /receivedata, in either the firmware's
    query-parameter form or JSON
  - shared-secret admin operations: credential list CRUD under /wifi and
    document writes

Authentication is a single static secret passed as the key query parameter,
matched exactly. /metrics and /healthz serve Prometheus and liveness.
*/
package api
