package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu         sync.Mutex
	collectors []prometheus.Collector
	registered bool
)

// register queues collectors from each file's init.
func register(cs ...prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()
	collectors = append(collectors, cs...)
}

// Register adds every queued collector to reg. Calling it again with the
// default registry is a no-op.
func Register(reg prometheus.Registerer) error {
	mu.Lock()
	defer mu.Unlock()
	if reg == prometheus.DefaultRegisterer && registered {
		return nil
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	if reg == prometheus.DefaultRegisterer {
		registered = true
	}
	return nil
}

// MustRegister registers with the default registry and panics on conflict.
func MustRegister() {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
