/*
Package log provides structured logging built on zerolog.

Both binaries initialize the global Logger once at startup; packages derive
child loggers with WithComponent so every line carries its origin. The server
logs JSON for collection, the tracker logs the console format since its output
usually ends up on a serial console or journald.
*/
package log
