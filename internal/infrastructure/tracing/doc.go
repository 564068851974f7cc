/*
Package tracing tags renderer bridge requests with an invoke id.

Every request gets a ULID invoke id, echoed back in the X-Invoke-ID response
header and stored on the request context. A valid id sent by the renderer
is reused. When the request finishes its span is logged: debug for
successes, warn for errors.

	tracer := tracing.New(logger.Named("trace"))
	router.Use(tracing.Middleware(tracer))

	invokeID, ok := tracing.FromContext(c.Request.Context())
*/
package tracing
