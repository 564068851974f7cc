// Package shell implements the "shell" capability.
//
// shell.execute runs a program to completion. shell.spawn starts a program
// (optionally on a PTY) and streams its output as shell://output events,
// followed by one shell://exit event. Programs can be restricted with an
// allow list.
package shell
