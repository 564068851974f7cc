package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/id"
)

// Header carries the invoke id between renderer and bridge
const Header = "X-Invoke-ID"

type contextKey struct{}

// Span is one bridge request
type Span struct {
	ID         id.InvokeID
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	StatusCode int
	Tags       map[string]string
	Err        error
}

// SetTag records a key/value on the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// Finish stamps the duration
func (s *Span) Finish() {
	s.Duration = time.Since(s.StartTime)
}

// Tracer writes finished spans to the log
type Tracer struct {
	logger *logging.Logger
}

// New creates a tracer
func New(logger *logging.Logger) *Tracer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracer{logger: logger}
}

// StartSpan begins a span. A valid invoke id already on ctx is reused.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	invokeID, ok := FromContext(ctx)
	if !ok {
		invokeID = id.NewInvokeID()
	}
	span := &Span{
		ID:        invokeID,
		Name:      name,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}
	return span, WithInvokeID(ctx, invokeID)
}

// Submit logs a finished span; failures at warn, the rest at debug
func (t *Tracer) Submit(span *Span) {
	fields := make([]zap.Field, 0, len(span.Tags)+4)
	fields = append(fields,
		zap.String("invoke_id", span.ID.String()),
		zap.String("span", span.Name),
		zap.Int("status", span.StatusCode),
		zap.Duration("duration", span.Duration),
	)
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	if span.Err != nil || span.StatusCode >= 500 {
		if span.Err != nil {
			fields = append(fields, zap.Error(span.Err))
		}
		t.logger.Warn("Request failed", fields...)
		return
	}
	t.logger.Debug("Request", fields...)
}

// WithInvokeID stores an invoke id on ctx
func WithInvokeID(ctx context.Context, invokeID id.InvokeID) context.Context {
	return context.WithValue(ctx, contextKey{}, invokeID)
}

// FromContext returns the invoke id stored on ctx
func FromContext(ctx context.Context) (id.InvokeID, bool) {
	invokeID, ok := ctx.Value(contextKey{}).(id.InvokeID)
	return invokeID, ok && invokeID != ""
}
