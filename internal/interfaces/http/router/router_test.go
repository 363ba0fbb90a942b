package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"game-gen-ai-api/internal/config"
	"game-gen-ai-api/internal/interfaces/http/handler"
)

func TestRoutesRegistered(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"

	r := New(cfg, Handlers{
		Health:   handler.NewHealthHandler("test"),
		Activity: handler.NewActivityHandler(nil),
	})

	got := map[string]bool{}
	for _, ri := range r.Engine().Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"GET /live",
		"GET /metrics",
		"POST /generate",
		"POST /generate/debug",
		"GET /generate/test",
		"GET /stats",
		"GET /v1/activities",
		"POST /v1/activities/parse",
		"GET /v1/activities/:id",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}

	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
