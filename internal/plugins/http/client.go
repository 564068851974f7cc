package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/resilience"
)

const userAgent = "AgentOS-Studio/1.0"

// errServerError marks 5xx responses so the breaker counts them
var errServerError = errors.New("server error")

// newResty builds the shared resty client on a pooled transport
func newResty(opts Options, scope *Scope) *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	return resty.New().
		SetTransport(retryClient.HTTPClient.Transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(opts.MaxRedirects),
			resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
				if !scope.Allowed(req.URL) {
					return ErrURLNotAllowed
				}
				return nil
			}),
		)
}

// newLimiter returns an unlimited limiter when rps <= 0
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// DefaultBreakerSettings trips an origin after 10 consecutive failures or
// more than 70% failures over at least 20 requests
func DefaultBreakerSettings() resilience.Settings {
	return resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
	}
}

func responseToMap(resp *resty.Response) map[string]interface{} {
	headers := make(map[string]string, len(resp.Header()))
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	result := map[string]interface{}{
		"status":      resp.StatusCode(),
		"status_text": resp.Status(),
		"ok":          resp.StatusCode() >= 200 && resp.StatusCode() < 300,
		"headers":     headers,
		"size":        len(resp.Body()),
		"time_ms":     resp.Time().Milliseconds(),
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil {
		result["url"] = raw.Request.URL.String()
	}
	return result
}
