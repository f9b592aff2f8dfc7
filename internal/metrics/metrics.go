// Package metrics defines Prometheus metrics for the task server.
//
// Metric naming follows Prometheus conventions:
//   - taskserver_ prefix for all custom metrics
//   - _total suffix for counters
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts inbound API requests by method and status code.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskserver_requests_total",
			Help: "Total number of API requests by method and status.",
		},
		[]string{"method", "status"},
	)

	// AuthRejectionsTotal counts requests rejected by the authorization
	// gate, by gate layer ("auth" or "admin").
	AuthRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskserver_auth_rejections_total",
			Help: "Total requests rejected by the authorization middleware.",
		},
		[]string{"gate"},
	)

	// LoginsTotal counts login attempts by outcome ("success" or "failure").
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskserver_logins_total",
			Help: "Total login attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		AuthRejectionsTotal,
		LoginsTotal,
	)
}
