package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "unmatched", normalizePath(""))
	assert.Equal(t, "/products/:id", normalizePath("/products/:id"))
}

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("metrics-test"))
	router.GET("/products/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	counter := HttpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/products/:id", "200")
	assert.Equal(t, float64(3), testutil.ToFloat64(counter))
}

func TestDbTimer_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DbErrors.WithLabelValues("metrics-test", string(DbOpInsert)))

	NewDbTimer("metrics-test", DbOpInsert, "products").ObserveDuration(nil)
	NewDbTimer("metrics-test", DbOpInsert, "products").ObserveDuration(assert.AnError)

	after := testutil.ToFloat64(DbErrors.WithLabelValues("metrics-test", string(DbOpInsert)))
	assert.Equal(t, before+1, after)
}
