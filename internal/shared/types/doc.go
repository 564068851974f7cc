// Package types provides shared data structures for the studio shell.
//
// Core Types:
//   - Capability: Capability plugin definition (commands it exposes)
//   - Command: A single invocable command of a capability
//   - Context: Caller context for a command (window, origin)
//   - Result: Standard command result
//   - RelaunchEvent: Arguments forwarded by a secondary launch
//   - Event: Host event delivered to renderers
//
// Example Usage:
//
//	def := types.Capability{
//	    ID:       "fs",
//	    Name:     "Filesystem",
//	    Category: types.CategoryFilesystem,
//	}
package types
