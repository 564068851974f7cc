// Package process implements the "process" capability: exit and restart
// requests routed to the application event loop, plus process info.
package process
