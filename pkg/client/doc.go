/*
Package client is the typed HTTP client for the follower server, shared by
the tracker agent and the admin CLI.

Errors the tracker has to react to are sentinel values (ErrUnauthorized,
ErrInvalidPacket, ErrNoFix); everything else surfaces as a plain error and is
treated as transient by callers.
*/
package client
