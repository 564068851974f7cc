// Package updater implements the desktop-only "updater" capability.
//
// Endpoints are URL templates expanded with {{target}}, {{arch}} and
// {{current_version}}. A 200 answer carries a JSON release document, a 204
// answer means the app is up to date. Downloads must carry a valid ed25519
// signature from the configured public key; ".gz" artifacts are
// decompressed before they are staged.
package updater
