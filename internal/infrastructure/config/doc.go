// Package config provides 12-factor configuration for the studio shell.
//
// Process settings come from environment variables with defaults. Window
// layout comes from an application manifest (TOML, YAML or JSON) named by
// STUDIO_MANIFEST; without one the shell opens a single "main" window.
//
// Configuration Sections:
//   - App: identifier, version, manifest path, data dir
//   - IPC: renderer bridge address and allowed origins
//   - SingleInstance: lock/socket directory
//   - Updater: endpoints, public key, timeout
//   - HTTP, FS, Shell: capability scopes
//   - Logging, RateLimit
//
// Example Usage:
//
//	cfg, err := config.Load()
//	manifest, err := config.LoadManifest(cfg.App.Manifest)
package config
