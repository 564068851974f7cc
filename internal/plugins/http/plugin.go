package http

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "http"

var methods = map[string]struct{}{
	"GET": {}, "HEAD": {}, "POST": {}, "PUT": {}, "PATCH": {}, "DELETE": {}, "OPTIONS": {},
}

// Options configures the http plugin
type Options struct {
	Allow             []string
	RequestsPerSecond float64
	Timeout           time.Duration
	Retries           int
	RetryWait         time.Duration
	RetryMaxWait      time.Duration
	MaxRedirects      int
	Breaker           *resilience.Settings
	Logger            *logging.Logger
}

// Plugin performs outbound HTTP requests
type Plugin struct {
	scope    *Scope
	client   *resty.Client
	limiter  *rate.Limiter
	breakers *resilience.Group
	logger   *logging.Logger
}

// New creates the http plugin
func New(opts Options) (*Plugin, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}
	if opts.RetryMaxWait <= 0 {
		opts.RetryMaxWait = 30 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}
	settings := DefaultBreakerSettings()
	if opts.Breaker != nil {
		settings = *opts.Breaker
	}
	settings.IsFailure = func(err error) bool {
		return err != nil && !errors.Is(err, ErrURLNotAllowed)
	}
	logger := opts.Logger
	settings.OnStateChange = func(name string, from, to resilience.State) {
		logger.Warn("HTTP circuit breaker state changed",
			zap.String("origin", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	scope, err := NewScope(opts.Allow)
	if err != nil {
		return nil, err
	}

	return &Plugin{
		scope:    scope,
		client:   newResty(opts, scope),
		limiter:  newLimiter(opts.RequestsPerSecond),
		breakers: resilience.NewGroup(settings),
		logger:   opts.Logger,
	}, nil
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	return types.Capability{
		ID:          ID,
		Name:        "HTTP",
		Description: "Outbound HTTP requests restricted to an allow list",
		Category:    types.CategoryNetwork,
		Commands: []types.Command{
			{
				ID:          ID + ".fetch",
				Name:        "Fetch",
				Description: "Send a request and return status, headers and body",
				Parameters: []types.Parameter{
					{Name: "url", Type: "string", Description: "Absolute URL", Required: true},
					{Name: "method", Type: "string", Description: "HTTP method, defaults to GET", Required: false},
					{Name: "headers", Type: "object", Description: "Request headers", Required: false},
					{Name: "body", Type: "string", Description: "Request body", Required: false},
					{Name: "timeout_ms", Type: "number", Description: "Request timeout in milliseconds", Required: false},
					{Name: "response_type", Type: "string", Description: "text (default), json or binary", Required: false},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs an http command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".fetch":
		return p.fetch(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

// Scope returns the URL allow list
func (p *Plugin) Scope() *Scope {
	return p.scope
}

// BreakerStates reports the breaker state per origin
func (p *Plugin) BreakerStates() map[string]resilience.State {
	return p.breakers.States()
}

func (p *Plugin) fetch(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	rawURL, _ := params["url"].(string)
	if rawURL == "" {
		return types.Failure("url is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return types.Failure(fmt.Sprintf("invalid url: %s", rawURL))
	}
	if !p.scope.Allowed(u) {
		return types.Failure(fmt.Sprintf("%v: %s", ErrURLNotAllowed, rawURL))
	}

	method := "GET"
	if m, ok := params["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if _, ok := methods[method]; !ok {
		return types.Failure(fmt.Sprintf("unsupported method: %s", method))
	}

	responseType, _ := params["response_type"].(string)
	switch responseType {
	case "":
		responseType = "text"
	case "text", "json", "binary":
	default:
		return types.Failure(fmt.Sprintf("unsupported response_type: %s", responseType))
	}

	if ms, ok := params["timeout_ms"].(float64); ok && ms > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return types.Failure(fmt.Sprintf("rate limit error: %v", err))
	}

	req := p.client.R().SetContext(ctx)
	if headers, ok := params["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.SetHeader(k, s)
			}
		}
	}
	if body, ok := params["body"].(string); ok && body != "" {
		req.SetBody(body)
	}

	key := origin(u)
	resp, err := resilience.Execute(p.breakers.Get(key), func() (*resty.Response, error) {
		resp, err := req.Execute(method, u.String())
		if err == nil && resp.StatusCode() >= 500 {
			return resp, errServerError
		}
		return resp, err
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return types.Failure(fmt.Sprintf("%s unavailable: circuit breaker open", key))
	case errors.Is(err, ErrURLNotAllowed):
		return types.Failure(fmt.Sprintf("redirect blocked: %v", ErrURLNotAllowed))
	case err != nil && !errors.Is(err, errServerError):
		p.logger.Debug("HTTP request failed",
			zap.String("method", method),
			zap.String("url", u.Redacted()),
			zap.Error(err),
		)
		return types.Failure(fmt.Sprintf("request failed: %v", err))
	}

	p.logger.Debug("HTTP request",
		zap.String("method", method),
		zap.String("url", u.Redacted()),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)

	data := responseToMap(resp)
	switch responseType {
	case "json":
		var v interface{}
		if len(resp.Body()) > 0 {
			if err := sonic.Unmarshal(resp.Body(), &v); err != nil {
				return types.Failure(fmt.Sprintf("invalid JSON response: %v", err))
			}
		}
		data["data"] = v
	case "binary":
		data["data"] = base64.StdEncoding.EncodeToString(resp.Body())
	default:
		data["data"] = resp.String()
	}
	return types.Success(data)
}
