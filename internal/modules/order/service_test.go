// README: Order service tests (flow + invalid requests) on the in-memory store.
package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

// recordingPublisher captures per-order status events in publish order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Status
}

func (p *recordingPublisher) PublishStatus(_ types.ID, status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, status)
}

func (p *recordingPublisher) all() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Status, len(p.events))
	copy(out, p.events)
	return out
}

// failingNotifier always fails; transitions must not care.
type failingNotifier struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func (n *failingNotifier) NotifyFulfilled(context.Context, *Order) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	if n.done != nil {
		close(n.done)
	}
	return errors.New("smtp down")
}

func newTestService(t *testing.T) (*Service, *MemStore, *recordingPublisher) {
	t.Helper()
	store := NewMemStore()
	pub := &recordingPublisher{}
	svc := NewService(store, pub, nil, zerolog.Nop())
	return svc, store, pub
}

func mustCreateDelivery(t *testing.T, svc *Service, items ...Item) types.ID {
	t.Helper()
	id, err := svc.Create(context.Background(), CreateCommand{
		Type:    TypeDelivery,
		Address: &Address{Street: "Rue Neuve 1", City: "Bruxelles", Position: types.Point{Lat: 50.85, Lng: 4.35}},
		Items:   items,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return id
}

func assertStatus(t *testing.T, svc *Service, id types.ID, want Status) {
	t.Helper()
	o, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != want {
		t.Fatalf("status = %s, want %s", o.Status, want)
	}
}

func TestTransitionRejectsSkips(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id := mustCreateDelivery(t, svc)
	assertStatus(t, svc, id, StatusConfirmed)

	if err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusInPreparation, ActorType: "staff"}); err != nil {
		t.Fatalf("in_preparation: %v", err)
	}
	// Skipping prepared must fail and leave the status untouched.
	err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusReadyForDelivery, ActorType: "staff"})
	if err != ErrInvalidTransition {
		t.Fatalf("skip error = %v, want ErrInvalidTransition", err)
	}
	assertStatus(t, svc, id, StatusInPreparation)

	if err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusPrepared, ActorType: "staff"}); err != nil {
		t.Fatalf("prepared: %v", err)
	}
	if err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusReadyForDelivery, ActorType: "staff"}); err != nil {
		t.Fatalf("ready_for_delivery: %v", err)
	}
	assertStatus(t, svc, id, StatusReadyForDelivery)
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Transition(context.Background(), TransitionCommand{OrderID: "nope", To: StatusConfirmed, ActorType: "staff"})
	if err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id := mustCreateDelivery(t, svc)
	if err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusCanceled, ActorType: "staff"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusInPreparation, ActorType: "staff"})
	if err != ErrInvalidTransition {
		t.Fatalf("transition out of canceled = %v, want ErrInvalidTransition", err)
	}
	err = svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusCanceled, ActorType: "staff"})
	if err != ErrInvalidTransition {
		t.Fatalf("re-cancel = %v, want ErrInvalidTransition", err)
	}
}

func TestPublisherReceivesStatusEvents(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	id := mustCreateDelivery(t, svc)
	_ = svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusInPreparation, ActorType: "staff"})
	_ = svc.Transition(ctx, TransitionCommand{OrderID: id, To: StatusPrepared, ActorType: "staff"})

	got := pub.all()
	want := []Status{StatusInPreparation, StatusPrepared}
	if len(got) != len(want) {
		t.Fatalf("published %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAssignCourierSingleShot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id := mustCreateDelivery(t, svc)
	for _, st := range []Status{StatusInPreparation, StatusPrepared, StatusReadyForDelivery} {
		if err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: st, ActorType: "staff"}); err != nil {
			t.Fatalf("to %s: %v", st, err)
		}
	}

	if err := svc.AssignCourier(ctx, AssignCommand{OrderID: id, CourierID: "c1"}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	o, _ := svc.Get(ctx, id)
	if o.Status != StatusOutForDelivery || o.CourierID == nil || *o.CourierID != "c1" {
		t.Fatalf("after assign: status=%s courier=%v", o.Status, o.CourierID)
	}

	err := svc.AssignCourier(ctx, AssignCommand{OrderID: id, CourierID: "c2"})
	if err != ErrConflict {
		t.Fatalf("second assign = %v, want ErrConflict", err)
	}
	o, _ = svc.Get(ctx, id)
	if *o.CourierID != "c1" {
		t.Fatalf("courier overwritten to %s", *o.CourierID)
	}
}

func TestAssignCourierRequiresReadyForDelivery(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := mustCreateDelivery(t, svc)
	err := svc.AssignCourier(context.Background(), AssignCommand{OrderID: id, CourierID: "c1"})
	if err != ErrInvalidTransition {
		t.Fatalf("assign from confirmed = %v, want ErrInvalidTransition", err)
	}
}

func TestMarkItemPreparedClampsAtQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	id := mustCreateDelivery(t, svc,
		Item{ID: "i1", Name: "pizza margherita", Quantity: 2},
		Item{ID: "i2", Name: "tiramisu", Quantity: 1},
	)

	for i := 0; i < 5; i++ {
		if err := svc.MarkItemPrepared(ctx, PrepareCommand{OrderID: id, ItemID: "i1"}); err != nil {
			t.Fatalf("mark i1 (call %d): %v", i, err)
		}
	}
	o, _ := svc.Get(ctx, id)
	if o.Items[0].PreparedQuantity != 2 {
		t.Fatalf("i1 prepared = %d, want clamp at 2", o.Items[0].PreparedQuantity)
	}
	if o.AllPrepared() {
		t.Fatal("all-prepared with i2 untouched")
	}
	// The derived signal never moves the status by itself.
	if err := svc.MarkItemPrepared(ctx, PrepareCommand{OrderID: id, ItemID: "i2"}); err != nil {
		t.Fatalf("mark i2: %v", err)
	}
	o, _ = svc.Get(ctx, id)
	if !o.AllPrepared() {
		t.Fatal("expected all-prepared")
	}
	if o.Status != StatusConfirmed {
		t.Fatalf("status moved to %s without an explicit transition", o.Status)
	}
}

func TestMarkItemPreparedUnknownItem(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := mustCreateDelivery(t, svc, Item{ID: "i1", Quantity: 1})
	err := svc.MarkItemPrepared(context.Background(), PrepareCommand{OrderID: id, ItemID: "ghost"})
	if err != ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestNotificationFailureDoesNotBlockTransition(t *testing.T) {
	store := NewMemStore()
	notifier := &failingNotifier{done: make(chan struct{})}
	svc := NewService(store, nil, notifier, zerolog.Nop())
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateCommand{
		Type:    TypeDelivery,
		Address: &Address{Position: types.Point{Lat: 50.85, Lng: 4.35}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, st := range []Status{StatusInPreparation, StatusPrepared, StatusReadyForDelivery, StatusOutForDelivery, StatusDelivered} {
		if err := svc.Transition(ctx, TransitionCommand{OrderID: id, To: st, ActorType: "staff"}); err != nil {
			t.Fatalf("to %s: %v", st, err)
		}
	}
	assertStatus(t, svc, id, StatusDelivered)

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier never invoked")
	}
}

func TestScheduledCreation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	future := time.Now().Add(2 * time.Hour)
	id, err := svc.Create(ctx, CreateCommand{Type: TypePickup, ScheduledFor: &future})
	if err != nil {
		t.Fatalf("create scheduled: %v", err)
	}
	assertStatus(t, svc, id, StatusScheduled)

	// A scheduled time already in the past confirms immediately.
	past := time.Now().Add(-time.Minute)
	id2, err := svc.Create(ctx, CreateCommand{Type: TypePickup, ScheduledFor: &past})
	if err != nil {
		t.Fatalf("create past-scheduled: %v", err)
	}
	assertStatus(t, svc, id2, StatusConfirmed)
}

func TestCreateDeliveryRequiresAddress(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateCommand{Type: TypeDelivery})
	if err != ErrBadRequest {
		t.Fatalf("error = %v, want ErrBadRequest", err)
	}
}
