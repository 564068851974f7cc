package tracing

import (
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/id"
)

// Middleware gives each bridge request an invoke id. A well-formed id sent
// by the renderer in X-Invoke-ID is kept so both sides can correlate logs.
func Middleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(Header); id.IsValid(incoming) {
			ctx = WithInvokeID(ctx, id.InvokeID(incoming))
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, name)
		span.SetTag("method", c.Request.Method)
		if origin := c.GetHeader("Origin"); origin != "" {
			span.SetTag("origin", origin)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(Header, span.ID.String())

		c.Next()

		span.StatusCode = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		}
		span.Finish()
		tracer.Submit(span)
	}
}
