// Package metrics records verification outcomes and latency.
package metrics

import "time"

// Recorder receives one call per verification.
type Recorder interface {
	IncOutcome(outcome, chain string)
	ObserveLatency(operation string, d time.Duration, chain string)
}

type NoopRecorder struct{}

func (NoopRecorder) IncOutcome(string, string)                     {}
func (NoopRecorder) ObserveLatency(string, time.Duration, string) {}
