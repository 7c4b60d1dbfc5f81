// README: Store contract for orders; the Postgres implementation lives in pg.go.
package order

import (
	"context"
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

// Store is the persistence contract the service and promoter depend on.
// UpdateStatusIfCurrent and AssignCourier are atomic conditional updates; a
// false return means the row moved underneath the caller (lost race).
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error)
	FindDueScheduled(ctx context.Context, now time.Time) ([]*Order, error)
	UpdateStatusIfCurrent(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
	AssignCourier(ctx context.Context, id types.ID, courier types.ID, version int) (bool, error)
	IncrementItemPrepared(ctx context.Context, orderID, itemID types.ID) error
	AppendEvent(ctx context.Context, e *Event) error
}
