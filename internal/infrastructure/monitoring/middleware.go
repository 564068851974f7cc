package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for IPC metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures command duration
type Timer struct {
	start      time.Time
	metrics    *Metrics
	capability string
	command    string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, capability, command string) *Timer {
	return &Timer{
		start:      time.Now(),
		metrics:    metrics,
		capability: capability,
		command:    command,
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop(status string) {
	t.metrics.RecordCommand(t.capability, t.command, status, time.Since(t.start))
}
