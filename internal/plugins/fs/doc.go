// Package fs implements the "fs" capability.
//
// Every path is resolved against the app data dir when relative and must
// match the scope, a list of doublestar globs such as "$APPDATA/**" or
// "$HOME/Documents/**". Recursive listings use fastwalk and stat reports
// the detected MIME type.
package fs
