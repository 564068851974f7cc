// Package window resolves windows by label and performs best-effort
// actions on them.
//
// Window existence races with startup and shutdown: the main window may
// not exist yet when the setup hook runs, or may already be closing when a
// relaunch arrives. Every action therefore treats an absent window as a
// normal outcome and reports it as a boolean, never as an error.
//
// Example Usage:
//
//	windows := window.NewManager(logger)
//	windows.Register(mainWindow)
//	windows.EnableDevtoolsIfDebug(mode)
//	windows.FocusMain()
package window
