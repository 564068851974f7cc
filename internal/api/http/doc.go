// Package http implements the renderer bridge handlers.
//
// Routes:
//
//	GET  /              liveness
//	GET  /health        mode, capability stats and windows
//	GET  /capabilities  registered capabilities (optional ?category=)
//	GET  /windows       open windows
//	POST /invoke        {"command":"fs.read_text_file","params":{...}}
package http
