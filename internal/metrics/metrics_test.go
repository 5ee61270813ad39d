package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewDecisionCounts(t *testing.T) {
	before := testutil.ToFloat64(reviewDecisions.WithLabelValues("deposit", "approved", "conflict"))
	ReviewDecision("deposit", "approved", "conflict")
	ReviewDecision("deposit", "approved", "conflict")
	after := testutil.ToFloat64(reviewDecisions.WithLabelValues("deposit", "approved", "conflict"))
	assert.Equal(t, before+2, after)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/ping/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "investment_portal_http_requests_total")
}
