// Package middleware provides the bridge's CORS and rate limiting middleware.
package middleware
