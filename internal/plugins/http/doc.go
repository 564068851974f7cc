// Package http implements the "http" capability: outbound requests on
// behalf of the renderer.
//
// Requests are limited to a URL allow list (doublestar globs), paced by a
// token bucket and guarded by one circuit breaker per origin. Redirects are
// checked against the same allow list.
package http
