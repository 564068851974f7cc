// Package ws streams host events to renderers over WebSocket.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - event: A host event ({"id","event","window","payload","timestamp"})
//   - pong: Reply to ping
//
// Example Usage:
//
//	handler := ws.NewHandler(bus, []string{"http://localhost:1420"}, logger)
//	router.GET("/events", handler.HandleConnection)
package ws
