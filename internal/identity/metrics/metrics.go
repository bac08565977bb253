package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the identity registry.
type Metrics struct {
	Logins         *prometheus.CounterVec
	AdminDecisions *prometheus.CounterVec
	AdminRequests  prometheus.Counter
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the identity metrics, registering them on the default registry
// on first call.
func New() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onestop_logins_total",
			Help: "Login attempts by role and outcome",
		}, []string{"role", "outcome"}),
		AdminDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onestop_admin_decisions_total",
			Help: "Service-manager decisions on admin accounts",
		}, []string{"decision"}),
		AdminRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onestop_admin_access_requests_total",
			Help: "New admin access requests created",
		}),
	}
}
