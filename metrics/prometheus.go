package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PrometheusRecorder struct {
	outcomes  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the verifier collectors with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygate_verifier",
			Name:      "verifications_total",
			Help:      "Signature verifications by outcome",
		},
		[]string{"outcome", "chain"},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paygate_verifier",
			Name:      "latency_seconds",
			Help:      "Verification latency",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		},
		[]string{"operation", "chain"},
	)

	for _, c := range []prometheus.Collector{outcomes, histogram} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PrometheusRecorder{
		outcomes:  outcomes,
		histogram: histogram,
	}, nil
}

func (p *PrometheusRecorder) IncOutcome(outcome, chain string) {
	p.outcomes.With(prometheus.Labels{
		"outcome": outcome,
		"chain":   chain,
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(operation string, d time.Duration, chain string) {
	p.histogram.With(prometheus.Labels{
		"operation": operation,
		"chain":     chain,
	}).Observe(d.Seconds())
}

// Handler exposes the collectors gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
