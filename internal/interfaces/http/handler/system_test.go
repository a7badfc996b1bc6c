package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSystemEngine() *gin.Engine {
	engine := gin.New()
	h := NewSystemHandler(nil)
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestSystemHandlerPing(t *testing.T) {
	engine := newSystemEngine()

	req := httptest.NewRequest("GET", "/api/v1/system/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
	assert.Contains(t, w.Body.String(), "timestamp")
}

func TestSystemHandlerInfo(t *testing.T) {
	engine := newSystemEngine()

	req := httptest.NewRequest("GET", "/api/v1/system/info", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_version")
	assert.Contains(t, w.Body.String(), "uptime")
}

func TestSystemHandlerHealthWithoutDatabase(t *testing.T) {
	engine := newSystemEngine()

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	// No database configured still reports liveness
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
