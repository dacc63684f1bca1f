package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes.
const (
	RefreshSucceeded = "succeeded"
	RefreshFailed    = "failed"
	RefreshSkipped   = "skipped"
)

// Recorder holds the client side counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	Requests       *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	RefreshWaiters prometheus.Counter
	AuthOperations *prometheus.CounterVec
}

// New registers the counters on reg. Passing nil uses a private registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Recorder{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_client_requests_total",
			Help: "HTTP requests issued by the API client, by method and status class.",
		}, []string{"method", "status"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_client_token_refreshes_total",
			Help: "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		RefreshWaiters: factory.NewCounter(prometheus.CounterOpts{
			Name: "campaign_client_refresh_waiters_total",
			Help: "Callers that joined a refresh already in flight.",
		}),
		AuthOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campaign_client_auth_operations_total",
			Help: "Session store operations by name and outcome.",
		}, []string{"operation", "outcome"}),
	}
}

// Request counts one HTTP exchange. status 0 means a transport failure.
func (r *Recorder) Request(method string, status int) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(method, statusClass(status)).Inc()
}

func (r *Recorder) Refresh(outcome string) {
	if r == nil {
		return
	}
	r.Refreshes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RefreshWaiter() {
	if r == nil {
		return
	}
	r.RefreshWaiters.Inc()
}

func (r *Recorder) AuthOperation(operation string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.AuthOperations.WithLabelValues(operation, outcome).Inc()
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
