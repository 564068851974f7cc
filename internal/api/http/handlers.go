package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// Info identifies the running application
type Info struct {
	Identifier string
	Version    string
	Mode       platform.BuildMode
}

// Handlers contains the renderer bridge handlers
type Handlers struct {
	registry *capability.Registry
	windows  *window.Manager
	info     Info
	logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(registry *capability.Registry, windows *window.Manager, info Info, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		registry: registry,
		windows:  windows,
		info:     info,
		logger:   logger,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": h.info.Identifier,
		"version": h.info.Version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	focused, _ := h.windows.Focused()
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"mode":         h.info.Mode.String(),
		"capabilities": h.registry.Stats(),
		"windows":      h.windows.Labels(),
		"focused":      focused,
	})
}

// ListCapabilities lists registered capabilities in registration order
func (h *Handlers) ListCapabilities(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"capabilities": h.registry.List(category),
		"stats":        h.registry.Stats(),
	})
}

// ListWindows lists open window labels
func (h *Handlers) ListWindows(c *gin.Context) {
	focused, _ := h.windows.Focused()
	c.JSON(http.StatusOK, gin.H{
		"windows": h.windows.Labels(),
		"focused": focused,
	})
}

// Invoke executes a capability command
func (h *Handlers) Invoke(c *gin.Context) {
	var req types.InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appCtx := &types.Context{Window: req.Window}
	if origin := c.GetHeader("Origin"); origin != "" {
		appCtx.Origin = &origin
	}

	result, err := h.registry.Execute(c.Request.Context(), req.Command, req.Params, appCtx)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, capability.ErrUnknownCapability), errors.Is(err, capability.ErrUnknownCommand):
			status = http.StatusNotFound
		case errors.Is(err, capability.ErrInvalidCommand):
			status = http.StatusBadRequest
		}
		invokeID, _ := tracing.FromContext(c.Request.Context())
		h.logger.Debug("Command failed",
			zap.String("invoke_id", invokeID.String()),
			zap.String("command", req.Command),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
