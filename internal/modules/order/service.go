// README: Order service; single authority for status transitions regardless of trigger source.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("order state conflict")
	ErrBadRequest        = errors.New("bad request")
)

// Publisher receives the order-scoped status event after a successful
// transition. The global live-orders hint is emitted by callers (realtime
// handler per request, promoter once per batch), not here.
type Publisher interface {
	PublishStatus(orderID types.ID, status Status)
}

// Notifier sends the customer receipt once an order is fulfilled.
// Best-effort: failures are logged and never block the transition.
type Notifier interface {
	NotifyFulfilled(ctx context.Context, o *Order) error
}

type Service struct {
	store    Store
	pub      Publisher
	notifier Notifier
	log      zerolog.Logger
}

func NewService(store Store, pub Publisher, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{store: store, pub: pub, notifier: notifier, log: log}
}

type CreateCommand struct {
	Type         Type
	ScheduledFor *time.Time
	Address      *Address
	Items        []Item
}

type TransitionCommand struct {
	OrderID   types.ID
	To        Status
	ActorType string
	ActorID   *types.ID
}

type AssignCommand struct {
	OrderID   types.ID
	CourierID types.ID
}

type PrepareCommand struct {
	OrderID types.ID
	ItemID  types.ID
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.Type != TypePickup && cmd.Type != TypeDelivery {
		return "", ErrBadRequest
	}
	if cmd.Type == TypeDelivery && cmd.Address == nil {
		return "", ErrBadRequest
	}

	now := time.Now()
	status := StatusConfirmed
	if cmd.ScheduledFor != nil && cmd.ScheduledFor.After(now) {
		status = StatusScheduled
	}

	o := &Order{
		ID:           newID(),
		Type:         cmd.Type,
		Status:       status,
		ScheduledFor: cmd.ScheduledFor,
		Address:      cmd.Address,
		Items:        cmd.Items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return "", err
	}
	return o.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// ListLive returns the actionable set shown on the staff boards.
func (s *Service) ListLive(ctx context.Context) ([]*Order, error) {
	return s.store.ListByStatus(ctx, LiveStatuses...)
}

// Transition validates cmd.To against the order's graph and applies it with a
// conditional update. The loser of a concurrent race gets ErrConflict and must
// refetch; nothing is broadcast for failed attempts.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Type, o.Status, cmd.To) {
		return ErrInvalidTransition
	}
	ok, err := s.store.UpdateStatusIfCurrent(ctx, o.ID, o.Status, cmd.To, o.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:   o.ID,
		From:      o.Status,
		To:        cmd.To,
		ActorType: cmd.ActorType,
		ActorID:   cmd.ActorID,
		CreatedAt: time.Now(),
	})
	if s.pub != nil {
		s.pub.PublishStatus(o.ID, cmd.To)
	}
	if cmd.To == StatusDelivered || cmd.To == StatusPickedUp {
		s.notifyFulfilled(o, cmd.To)
	}
	return nil
}

// AssignCourier is single-shot: it sets the courier and moves
// ready_for_delivery → out_for_delivery in one conditional update.
func (s *Service) AssignCourier(ctx context.Context, cmd AssignCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if o.CourierID != nil {
		return ErrConflict
	}
	if !CanTransition(o.Type, o.Status, StatusOutForDelivery) {
		return ErrInvalidTransition
	}
	ok, err := s.store.AssignCourier(ctx, o.ID, cmd.CourierID, o.StatusVersion)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:   o.ID,
		From:      o.Status,
		To:        StatusOutForDelivery,
		ActorType: "courier",
		ActorID:   &cmd.CourierID,
		CreatedAt: time.Now(),
	})
	if s.pub != nil {
		s.pub.PublishStatus(o.ID, StatusOutForDelivery)
	}
	return nil
}

// MarkItemPrepared validates one more unit of a line item. Calls past full
// preparation are no-ops, not errors. The derived all-prepared signal does not
// change the order status; staff confirm the "prepared" transition explicitly.
func (s *Service) MarkItemPrepared(ctx context.Context, cmd PrepareCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	found := false
	for _, it := range o.Items {
		if it.ID == cmd.ItemID {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}
	return s.store.IncrementItemPrepared(ctx, o.ID, cmd.ItemID)
}

func (s *Service) notifyFulfilled(o *Order, final Status) {
	if s.notifier == nil {
		return
	}
	done := *o
	done.Status = final
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyFulfilled(ctx, &done); err != nil {
			s.log.Error().Err(err).Str("order_id", string(o.ID)).Msg("receipt notification failed")
		}
	}()
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
