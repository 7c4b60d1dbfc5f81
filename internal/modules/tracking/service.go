// README: Position stream service; sole writer of the order position history.
package tracking

import (
	"context"
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

// Orders is the slice of the order service the tracker needs.
type Orders interface {
	Get(ctx context.Context, id types.ID) (*order.Order, error)
}

// PositionStore persists samples; *Store implements it, tests fake it.
type PositionStore interface {
	Append(ctx context.Context, orderID types.ID, sample Sample) error
	Last(ctx context.Context, orderID types.ID) (Sample, bool, error)
}

// Publisher fans the latest sample out to the order's subscribers.
type Publisher interface {
	PublishLocation(orderID types.ID, pos types.Point)
}

type Service struct {
	store  PositionStore
	orders Orders
	pub    Publisher
	now    func() time.Time
}

func NewService(store PositionStore, orders Orders, pub Publisher) *Service {
	return &Service{store: store, orders: orders, pub: pub, now: time.Now}
}

// RecordPosition appends one courier GPS sample and republishes it to the
// order's room. An unknown order drops the sample and surfaces ErrNotFound to
// the sending courier only. Samples are accepted whatever the current status;
// the consuming UI decides relevance, since network delay can legitimately
// deliver a stale sample after a transition.
func (s *Service) RecordPosition(ctx context.Context, orderID types.ID, pos types.Point) error {
	if _, err := s.orders.Get(ctx, orderID); err != nil {
		return err
	}
	sample := Sample{Position: pos, RecordedAt: s.now()}
	if err := s.store.Append(ctx, orderID, sample); err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.PublishLocation(orderID, pos)
	}
	return nil
}

// LastPosition returns the most recent sample for an order, if any.
func (s *Service) LastPosition(ctx context.Context, orderID types.ID) (Sample, bool, error) {
	return s.store.Last(ctx, orderID)
}
