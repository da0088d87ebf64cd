package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PagesRendered counts successful page renders by route name
var PagesRendered = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "salas_pages_rendered_total",
		Help: "Total number of pages rendered",
	},
	[]string{"route"},
)

// RenderErrors counts template execution failures by template name
var RenderErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "salas_render_errors_total",
		Help: "Total number of template execution failures",
	},
	[]string{"template"},
)

// RenderLatency records how long a page render took
var RenderLatency = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "salas_render_latency_seconds",
		Help:    "Latency in seconds to render a page template",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"route"},
)

// NotFound counts requests that matched no route
var NotFound = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "salas_not_found_total",
		Help: "Total number of requests that matched no route",
	},
)

// RolesAssigned counts random role assignments by role name
var RolesAssigned = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "salas_roles_assigned_total",
		Help: "Total number of practice roles assigned",
	},
	[]string{"role"},
)

func init() {
	prometheus.MustRegister(PagesRendered, RenderErrors, RenderLatency, NotFound, RolesAssigned)
}
