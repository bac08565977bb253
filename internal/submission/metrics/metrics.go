package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the submission lifecycle.
type Metrics struct {
	Created     prometheus.Counter
	Transitions *prometheus.CounterVec
	Refused     *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// New returns the submission metrics, registering them on the default
// registry on first call.
func New() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "onestop_submissions_created_total",
			Help: "Submissions filed by citizens",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onestop_submission_transitions_total",
			Help: "Lifecycle transitions by target status",
		}, []string{"to"}),
		Refused: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "onestop_submission_transitions_refused_total",
			Help: "Transitions refused by the lifecycle rules",
		}, []string{"reason"}),
	}
}
