/*
Package storage provides BoltDB-backed persistence for the follower's JSON
documents.

Each resource (latest fix, credential list, POI list, UI config) is one JSON
document under one key, overwritten wholesale on every write inside a single
bbolt transaction. That preserves the contract consumers rely on: a reader
sees either the previous document or the new one, never a partial update.

The same store serves two roles. The server uses it as its durable mirror of
the in-memory fix plus the source of truth for credentials, POIs and UI
config. The tracker opens its own database on local flash as the credential
cache that survives power loss (the role SPIFFS played on the original
firmware).
*/
package storage
