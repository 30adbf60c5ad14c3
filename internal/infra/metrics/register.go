package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once    sync.Once
	pending []prometheus.Collector
)

// register queues collectors from the per-file init functions.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister hands every queued collector to Prometheus. Safe to call
// more than once; only the first call registers.
func MustRegister() {
	once.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}
