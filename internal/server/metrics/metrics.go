// Package metrics holds the Prometheus collectors of the token lifecycle and
// the HTTP server that exposes them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bankauth"

// Metrics groups the lifecycle counters.
type Metrics struct {
	TokensIssued      prometheus.Counter
	TokensRotated     prometheus.Counter
	RotationsRejected prometheus.Counter
	TokensRevoked     prometheus.Counter
	TokensEvicted     prometheus.Counter
	TokensSwept       prometheus.Counter
	SweepFailures     prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests and library callers usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TokensIssued:      counter("tokens_issued_total", "Refresh tokens issued."),
		TokensRotated:     counter("tokens_rotated_total", "Refresh tokens successfully rotated."),
		RotationsRejected: counter("rotations_rejected_total", "Rotation attempts rejected as invalid."),
		TokensRevoked:     counter("tokens_revoked_total", "Refresh tokens removed by explicit revocation."),
		TokensEvicted:     counter("tokens_evicted_total", "Refresh tokens evicted by the per-user cap."),
		TokensSwept:       counter("tokens_swept_total", "Expired or revoked refresh tokens removed by the sweep."),
		SweepFailures:     counter("sweep_failures_total", "Failed sweep runs."),
	}
	if reg != nil {
		reg.MustRegister(
			m.TokensIssued,
			m.TokensRotated,
			m.RotationsRejected,
			m.TokensRevoked,
			m.TokensEvicted,
			m.TokensSwept,
			m.SweepFailures,
		)
	}
	return m
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// NewServer returns an HTTP server serving g on /metrics and a liveness probe
// on /healthz.
func NewServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
