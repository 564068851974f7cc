// Package singleinstance keeps at most one primary process per app
// identifier and relays later launches to it.
//
// The primary role is an OS file lock (<dir>/<identifier>.lock, held with
// gofrs/flock and released by the OS when the process dies). The primary
// listens on <dir>/<identifier>.sock. A process that fails to take the lock
// dials the socket, writes one JSON line {"args":[...],"cwd":"..."} and
// waits for the line "ok" before Acquire returns ErrSecondaryInstance.
//
// State machine:
//
//	Unregistered --Acquire--> Listening --RelaunchEvent--> Listening
//
// Events are queued on a channel so the host can consume them from its own
// event loop.
package singleinstance
