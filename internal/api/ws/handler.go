package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Source publishes host events
type Source interface {
	Subscribe(buffer int) (<-chan types.Event, func())
}

// Message is sent by the renderer over the event stream
type Message struct {
	Type string `json:"type"`
}

// Handler streams host events to renderer connections
type Handler struct {
	source   Source
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHandler creates an event stream handler accepting the given origins
func NewHandler(source Source, origins []string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return middleware.AllowedOrigin(origins, r.Header.Get("Origin"))
			},
		},
		logger: logger,
	}
}

// HandleConnection upgrades the request and forwards events until either
// side closes
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.source.Subscribe(64)
	defer cancel()

	if err := h.send(conn, map[string]interface{}{
		"type":      "system",
		"message":   "connected",
		"timestamp": time.Now().Unix(),
	}); err != nil {
		return
	}

	// Only this goroutine writes; the reader hands pings over
	closed := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(closed)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("WebSocket read error", zap.Error(err))
				}
				return
			}
			if msg.Type == "ping" {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.send(conn, map[string]interface{}{
				"type":  "event",
				"event": ev,
			}); err != nil {
				return
			}
		case <-pings:
			if err := h.send(conn, map[string]interface{}{"type": "pong"}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, data interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(data)
}
