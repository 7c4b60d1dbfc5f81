// README: Scheduled-order promoter; ticker gated by realtime client presence.
package order

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Broadcaster emits the global "live orders changed" hint to all connected
// staff clients. One call per promoter tick, however many orders were due.
type Broadcaster interface {
	BroadcastLiveOrders()
}

// Promoter moves due scheduled orders into the live set. It only runs while
// at least one realtime client is connected; the presence tracker drives
// Start and Stop.
type Promoter struct {
	store    Store
	svc      *Service
	bc       Broadcaster
	interval time.Duration
	now      func() time.Time
	promoted prometheus.Counter
	log      zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

func NewPromoter(store Store, svc *Service, bc Broadcaster, interval time.Duration, promoted prometheus.Counter, log zerolog.Logger) *Promoter {
	return &Promoter{
		store:    store,
		svc:      svc,
		bc:       bc,
		interval: interval,
		now:      time.Now,
		promoted: promoted,
		log:      log,
	}
}

// Start launches the ticker loop. Idempotent: a second Start while running is
// a no-op.
func (p *Promoter) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.running = true
	go p.run(ctx)
}

// Stop halts the ticker loop. Idempotent: stopping an already-stopped
// promoter is a no-op.
func (p *Promoter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.cancel()
	p.cancel = nil
	p.running = false
}

func (p *Promoter) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PromoteDue(ctx)
		}
	}
}

// PromoteDue performs one scan-and-promote pass. Store errors abort the pass;
// the next tick retries. Returns how many orders were promoted.
func (p *Promoter) PromoteDue(ctx context.Context) int {
	due, err := p.store.FindDueScheduled(ctx, p.now())
	if err != nil {
		p.log.Error().Err(err).Msg("scheduled-order scan failed")
		return 0
	}

	promoted := 0
	for _, o := range due {
		err := p.svc.Transition(ctx, TransitionCommand{
			OrderID:   o.ID,
			To:        StatusConfirmed,
			ActorType: "system",
		})
		switch err {
		case nil:
			promoted++
		case ErrConflict, ErrInvalidTransition:
			// Canceled or already promoted since the scan; skip.
		default:
			p.log.Error().Err(err).Str("order_id", string(o.ID)).Msg("promotion failed")
		}
	}

	if promoted > 0 {
		if p.promoted != nil {
			p.promoted.Add(float64(promoted))
		}
		// One batched hint for the whole tick, not one per order.
		if p.bc != nil {
			p.bc.BroadcastLiveOrders()
		}
	}
	return promoted
}
