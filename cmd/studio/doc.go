/*
Command studio is the native shell of AgentOS Studio.

It loads configuration from the environment, composes the capability
plugins for the compiled build mode and runs the event loop. A second
launch on desktop hands its arguments to the running instance and exits
with status 0.

Usage:

	studio [-manifest app.toml] [-port 1430]

Build tags select the mode:

	go build ./cmd/studio                  # debug desktop
	go build -tags release ./cmd/studio    # release desktop
*/
package main
