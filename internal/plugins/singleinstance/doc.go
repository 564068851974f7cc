// Package singleinstance adapts the instance coordinator to a desktop-only
// capability. Its preflight decides primary or secondary before anything
// else starts; on the primary every relaunch focuses the main window.
package singleinstance
