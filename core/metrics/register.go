// Package metrics holds the process-wide Prometheus collectors and the HTTP
// endpoint that exposes them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu         sync.Mutex
	once       sync.Once
	collectors []prometheus.Collector
)

// Register queues collectors for MustRegister. Packages call it from init.
func Register(cs ...prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()
	collectors = append(collectors, cs...)
}

// MustRegister registers every queued collector with the default registry exactly once.
func MustRegister() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}
