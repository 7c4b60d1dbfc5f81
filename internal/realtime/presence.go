// README: Presence tracker; gates the scheduled-order promoter on client count.
package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Runner is the background task whose lifetime follows client presence.
// *order.Promoter implements it; tests inject fakes.
type Runner interface {
	Start()
	Stop()
}

// Presence counts connected realtime clients across the whole service (not
// per order) and starts the runner on the 0→1 transition, stops it on 1→0.
// Nothing is persisted; a restart resets the count to zero.
type Presence struct {
	mu     sync.Mutex
	set    map[string]struct{}
	runner Runner
	gauge  prometheus.Gauge
}

func NewPresence(runner Runner, gauge prometheus.Gauge) *Presence {
	return &Presence{
		set:    make(map[string]struct{}),
		runner: runner,
		gauge:  gauge,
	}
}

func (p *Presence) OnConnect(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.set[connID]; ok {
		return
	}
	p.set[connID] = struct{}{}
	if p.gauge != nil {
		p.gauge.Set(float64(len(p.set)))
	}
	if len(p.set) == 1 && p.runner != nil {
		p.runner.Start()
	}
}

func (p *Presence) OnDisconnect(connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.set[connID]; !ok {
		return
	}
	delete(p.set, connID)
	if p.gauge != nil {
		p.gauge.Set(float64(len(p.set)))
	}
	if len(p.set) == 0 && p.runner != nil {
		p.runner.Stop()
	}
}

// Count reports the current number of connected clients.
func (p *Presence) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.set)
}
