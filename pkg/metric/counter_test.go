package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_Increment(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounterWithRegistry(reg, "things_total", "Things.", "kind")

	c.Increment("a")
	c.Increment("a")
	c.Increment("b")

	vec := c.(*Counter).vec
	assert.Equal(t, 2.0, testutil.ToFloat64(vec.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("b")))
}

func TestNewMetrics_ServedByRegistryHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RouteResolutions.Increment("matched")
	m.CascadeFetches.Increment("modulo", "stale")

	rec := httptest.NewRecorder()
	GetHandlerForRegistry(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `navmenu_route_resolutions_total{outcome="matched"} 1`), body)
	assert.True(t, strings.Contains(body, `navmenu_cascade_fetches_total{level="modulo",outcome="stale"} 1`), body)
}

func TestNopMetrics_DoesNotPanic(t *testing.T) {
	m := NopMetrics()
	m.MenuLoads.Increment("ok")
	m.MenuAnomalies.Increment("orphan")
	m.RouteResolutions.Increment("unmatched")
	m.CascadeFetches.Increment("x", "ok")
}
