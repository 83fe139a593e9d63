package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggedRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := NewLogger(true, buf)

	r := gin.New()
	r.Use(ContextLogger(logger), LoggerMiddleware(logger))
	r.GET("/ok", func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.String(http.StatusOK, RequestID(c))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return r
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestContextLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	entry := lastLogLine(t, &buf)
	assert.Equal(t, "HTTP request", entry["msg"])
	assert.Equal(t, generated, entry["request_id"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.EqualValues(t, http.StatusOK, entry["status_code"])

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestLoggerMiddlewareLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	r := newLoggedRouter(&buf)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	entry := lastLogLine(t, &buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.NotContains(t, entry, "user_id")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, "WARN", lastLogLine(t, &buf)["level"])
}

func TestFromContextFallback(t *testing.T) {
	fallback := NewLogger(false, &bytes.Buffer{})
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Same(t, fallback, FromContext(c, fallback))
}
