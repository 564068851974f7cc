package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimitPerCaller(t *testing.T) {
	r := newRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))

	get := func(origin string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get("http://a"))
	assert.Equal(t, http.StatusOK, get("http://a"))
	assert.Equal(t, http.StatusTooManyRequests, get("http://a"))

	// Separate bucket per origin
	assert.Equal(t, http.StatusOK, get("http://b"))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig([]string{"http://localhost:1420"})))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:1420")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:1420", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSEmptyOriginsRejectsBrowsers(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig(nil)))
	r.POST("/invoke", func(c *gin.Context) { c.String(http.StatusOK, "ran") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{"command":"shell.execute"}`))
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "ran")

	// Non-browser clients send no Origin
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSWildcardAllowsAll(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig([]string{"http://localhost:1420", "*"})))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAllowedOrigin(t *testing.T) {
	origins := []string{"http://localhost:1420"}
	assert.True(t, AllowedOrigin(origins, ""))
	assert.True(t, AllowedOrigin(origins, "http://localhost:1420"))
	assert.False(t, AllowedOrigin(origins, "http://other"))
	assert.True(t, AllowedOrigin([]string{"*"}, "http://other"))
	assert.False(t, AllowedOrigin(nil, "http://other"))
}
