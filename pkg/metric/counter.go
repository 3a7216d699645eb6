package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric exported by navmenu.
const Namespace = "navmenu"

type IncrementalCounter interface {
	Increment(val ...string)
}

type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

func NewCounterWithRegistry(reg prometheus.Registerer, name, help string, labels ...string) IncrementalCounter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, labels)

	reg.MustRegister(counter)

	return &Counter{
		Name: name,
		Help: help,
		vec:  counter,
	}
}

type noop struct{}

func (noop) Increment(...string) {}

// Noop returns a counter that records nothing.
func Noop() IncrementalCounter {
	return noop{}
}

// Metrics groups the counters reported by the menu, navigation and cascade components.
type Metrics struct {
	// MenuLoads counts menu fetches by outcome ("ok", "error").
	MenuLoads IncrementalCounter

	// MenuAnomalies counts data integrity warnings raised while building a forest, by kind.
	MenuAnomalies IncrementalCounter

	// RouteResolutions counts active-route resolutions by outcome ("matched", "unmatched").
	RouteResolutions IncrementalCounter

	// CascadeFetches counts option fetches by level and outcome ("ok", "error", "stale").
	CascadeFetches IncrementalCounter
}

// NewMetrics registers the navmenu counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		MenuLoads:        NewCounterWithRegistry(reg, "menu_loads_total", "Menu fetches by outcome.", "outcome"),
		MenuAnomalies:    NewCounterWithRegistry(reg, "menu_anomalies_total", "Menu data integrity warnings by kind.", "kind"),
		RouteResolutions: NewCounterWithRegistry(reg, "route_resolutions_total", "Active route resolutions by outcome.", "outcome"),
		CascadeFetches:   NewCounterWithRegistry(reg, "cascade_fetches_total", "Cascade option fetches by level and outcome.", "level", "outcome"),
	}
}

// NopMetrics returns a Metrics whose counters record nothing.
func NopMetrics() *Metrics {
	return &Metrics{
		MenuLoads:        Noop(),
		MenuAnomalies:    Noop(),
		RouteResolutions: Noop(),
		CascadeFetches:   Noop(),
	}
}

// GetHandlerForRegistry returns an HTTP handler for serving Prometheus metrics from a custom registry.
func GetHandlerForRegistry(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
