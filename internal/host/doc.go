// Package host is the native runtime an application runs in.
//
// An App owns the capability registry, the window manager, the event bus
// and the main event loop. Startup happens in fixed phases:
//
//	New        register plugins in order (duplicate IDs rejected)
//	Start      preflight all → initialize all → manifest windows → setup → bridge
//	Run        event loop until Exit, SIGINT/SIGTERM or ctx cancellation
//
// A failing preflight (for example a secondary instance) aborts before any
// plugin is initialized or any window exists.
//
// Work from other goroutines reaches the loop through Dispatch. The renderer
// talks to the app over a local HTTP bridge (see Router) and receives events
// over a WebSocket stream.
package host
