package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"strello/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareAndHandler(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(metrics.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", metrics.Handler())
	metrics.MutationsTotal.WithLabelValues("edit-card", metrics.ResultApplied).Inc()

	// Act
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ping", nil))
	scrape := httptest.NewRecorder()
	r.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// Assert
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, http.StatusOK, scrape.Code)
	body := scrape.Body.String()
	assert.True(t, strings.Contains(body, `strello_http_request_duration_seconds_count{method="GET",route="/ping",status="204"} 1`))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.MutationsTotal.WithLabelValues("edit-card", metrics.ResultApplied)), 1.0)
}
