// README: In-memory Store for local development and tests; same conditional-update semantics as pg.go.
package order

import (
	"context"
	"sync"
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

// MemStore keeps orders in process memory. Conditional updates take the
// store lock, so the winner/loser semantics match the Postgres CAS exactly.
type MemStore struct {
	mu     sync.RWMutex
	orders map[types.ID]*Order
	events []Event
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[types.ID]*Order)}
}

func (s *MemStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneOrder(o)
	s.orders[o.ID] = cp
	return nil
}

func (s *MemStore) Get(_ context.Context, id types.ID) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemStore) ListByStatus(_ context.Context, statuses ...Status) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Order
	for _, o := range s.orders {
		for _, st := range statuses {
			if o.Status == st {
				out = append(out, cloneOrder(o))
				break
			}
		}
	}
	return out, nil
}

func (s *MemStore) FindDueScheduled(_ context.Context, now time.Time) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Order
	for _, o := range s.orders {
		if o.Status == StatusScheduled && o.ScheduledFor != nil && !o.ScheduledFor.After(now) {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *MemStore) UpdateStatusIfCurrent(_ context.Context, id types.ID, from, to Status, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemStore) AssignCourier(_ context.Context, id types.ID, courier types.ID, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != StatusReadyForDelivery || o.StatusVersion != version || o.CourierID != nil {
		return false, nil
	}
	c := courier
	o.CourierID = &c
	o.Status = StatusOutForDelivery
	o.StatusVersion++
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemStore) IncrementItemPrepared(_ context.Context, orderID, itemID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	for i := range o.Items {
		if o.Items[i].ID == itemID && o.Items[i].PreparedQuantity < o.Items[i].Quantity {
			o.Items[i].PreparedQuantity++
			break
		}
	}
	return nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

// Events returns a copy of the appended state events, in order.
func (s *MemStore) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func cloneOrder(o *Order) *Order {
	cp := *o
	if o.ScheduledFor != nil {
		t := *o.ScheduledFor
		cp.ScheduledFor = &t
	}
	if o.Address != nil {
		a := *o.Address
		cp.Address = &a
	}
	if o.CourierID != nil {
		c := *o.CourierID
		cp.CourierID = &c
	}
	cp.Items = make([]Item, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
