// README: Position stream service tests with in-memory fakes.
package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

type fakePositionStore struct {
	samples map[types.ID][]Sample
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{samples: make(map[types.ID][]Sample)}
}

func (f *fakePositionStore) Append(_ context.Context, orderID types.ID, s Sample) error {
	f.samples[orderID] = append(f.samples[orderID], s)
	return nil
}

func (f *fakePositionStore) Last(_ context.Context, orderID types.ID) (Sample, bool, error) {
	hist := f.samples[orderID]
	if len(hist) == 0 {
		return Sample{}, false, nil
	}
	return hist[len(hist)-1], true, nil
}

type fakeOrders struct {
	known map[types.ID]*order.Order
}

func (f *fakeOrders) Get(_ context.Context, id types.ID) (*order.Order, error) {
	o, ok := f.known[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

type capturingPublisher struct {
	published []types.Point
}

func (p *capturingPublisher) PublishLocation(_ types.ID, pos types.Point) {
	p.published = append(p.published, pos)
}

func TestRecordPositionAppendsAndPublishes(t *testing.T) {
	store := newFakePositionStore()
	orders := &fakeOrders{known: map[types.ID]*order.Order{
		"o3": {ID: "o3", Type: order.TypeDelivery, Status: order.StatusOutForDelivery},
	}}
	pub := &capturingPublisher{}
	svc := NewService(store, orders, pub)

	ctx := context.Background()
	first := types.Point{Lat: 50.85, Lng: 4.35}
	second := types.Point{Lat: 50.86, Lng: 4.36}
	if err := svc.RecordPosition(ctx, "o3", first); err != nil {
		t.Fatalf("first sample: %v", err)
	}
	if err := svc.RecordPosition(ctx, "o3", second); err != nil {
		t.Fatalf("second sample: %v", err)
	}

	// History holds both samples, appended in send order.
	hist := store.samples["o3"]
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].Position != first || hist[1].Position != second {
		t.Fatalf("history out of order: %+v", hist)
	}

	// Both samples were republished, in the same order.
	if len(pub.published) != 2 || pub.published[0] != first || pub.published[1] != second {
		t.Fatalf("published = %+v", pub.published)
	}

	last, ok, err := svc.LastPosition(ctx, "o3")
	if err != nil || !ok {
		t.Fatalf("last position: ok=%v err=%v", ok, err)
	}
	if last.Position != second {
		t.Fatalf("last = %+v, want %+v", last.Position, second)
	}
}

func TestRecordPositionUnknownOrderDropsSample(t *testing.T) {
	store := newFakePositionStore()
	orders := &fakeOrders{known: map[types.ID]*order.Order{}}
	pub := &capturingPublisher{}
	svc := NewService(store, orders, pub)

	err := svc.RecordPosition(context.Background(), "ghost", types.Point{Lat: 1, Lng: 2})
	if err != order.ErrNotFound {
		t.Fatalf("error = %v, want order.ErrNotFound", err)
	}
	if len(store.samples["ghost"]) != 0 {
		t.Fatal("sample recorded for unknown order")
	}
	if len(pub.published) != 0 {
		t.Fatal("sample broadcast despite unknown order")
	}
}

func TestRecordPositionAcceptedOutsideDeliveryState(t *testing.T) {
	store := newFakePositionStore()
	orders := &fakeOrders{known: map[types.ID]*order.Order{
		"o1": {ID: "o1", Type: order.TypeDelivery, Status: order.StatusPrepared},
	}}
	pub := &capturingPublisher{}
	svc := NewService(store, orders, pub)

	// A stale sample arriving after a status change is still kept and
	// republished; the UI decides relevance.
	if err := svc.RecordPosition(context.Background(), "o1", types.Point{Lat: 50.85, Lng: 4.35}); err != nil {
		t.Fatalf("stale sample rejected: %v", err)
	}
	if len(store.samples["o1"]) != 1 || len(pub.published) != 1 {
		t.Fatalf("stale sample not recorded/republished")
	}
}

func TestSampleTimestamps(t *testing.T) {
	store := newFakePositionStore()
	orders := &fakeOrders{known: map[types.ID]*order.Order{
		"o1": {ID: "o1", Type: order.TypeDelivery, Status: order.StatusOutForDelivery},
	}}
	svc := NewService(store, orders, nil)

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if err := svc.RecordPosition(context.Background(), "o1", types.Point{Lat: 50.85, Lng: 4.35}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := store.samples["o1"][0].RecordedAt; !got.Equal(fixed) {
		t.Fatalf("recorded_at = %v, want %v", got, fixed)
	}
}
