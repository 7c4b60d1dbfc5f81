// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var street, city, zip *string
	var lat, lng *float64
	if o.Address != nil {
		street, city, zip = &o.Address.Street, &o.Address.City, &o.Address.Zip
		lat, lng = &o.Address.Position.Lat, &o.Address.Position.Lng
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, order_type, status, status_version, scheduled_for,
			address_street, address_city, address_zip, address_lat, address_lng,
			courier_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		string(o.ID),
		string(o.Type),
		string(o.Status),
		o.StatusVersion,
		o.ScheduledFor,
		street, city, zip, lat, lng,
		idToStringPtr(o.CourierID),
		o.CreatedAt,
	)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, name, quantity, prepared_quantity)
			VALUES ($1, $2, $3, $4, $5)`,
			string(it.ID), string(o.ID), it.Name, it.Quantity, it.PreparedQuantity,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, order_type, status, status_version, scheduled_for,
		       address_street, address_city, address_zip, address_lat, address_lng,
		       courier_id, created_at, updated_at
		FROM orders
		WHERE id = $1`, string(id),
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PGStore) ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error) {
	vals := make([]string, len(statuses))
	for i, st := range statuses {
		vals[i] = string(st)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, order_type, status, status_version, scheduled_for,
		       address_street, address_city, address_zip, address_lat, address_lng,
		       courier_id, created_at, updated_at
		FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at`, vals,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if err := s.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *PGStore) FindDueScheduled(ctx context.Context, now time.Time) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_type, status, status_version, scheduled_for,
		       address_street, address_city, address_zip, address_lat, address_lng,
		       courier_id, created_at, updated_at
		FROM orders
		WHERE status = $1 AND scheduled_for IS NOT NULL AND scheduled_for <= $2
		ORDER BY scheduled_for`, string(StatusScheduled), now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *PGStore) UpdateStatusIfCurrent(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AssignCourier(ctx context.Context, id types.ID, courier types.ID, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET courier_id = $1,
		    status = $2,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5 AND courier_id IS NULL`,
		string(courier), string(StatusOutForDelivery), string(id), string(StatusReadyForDelivery), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) IncrementItemPrepared(ctx context.Context, orderID, itemID types.ID) error {
	// Clamped at quantity; zero rows affected for an already-full item is a no-op.
	_, err := s.db.Exec(ctx, `
		UPDATE order_items
		SET prepared_quantity = prepared_quantity + 1
		WHERE order_id = $1 AND id = $2 AND prepared_quantity < quantity`,
		string(orderID), string(itemID),
	)
	return err
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_state_events (
			order_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID),
		string(e.From),
		string(e.To),
		e.ActorType,
		idToStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *PGStore) loadItems(ctx context.Context, o *Order) error {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, quantity, prepared_quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, string(o.ID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Quantity, &it.PreparedQuantity); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var scheduledFor sql.NullTime
	var street, city, zip, courierID sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&o.ID, &o.Type, &o.Status, &o.StatusVersion, &scheduledFor,
		&street, &city, &zip, &lat, &lng,
		&courierID, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if scheduledFor.Valid {
		t := scheduledFor.Time
		o.ScheduledFor = &t
	}
	if street.Valid {
		o.Address = &Address{
			Street:   street.String,
			City:     city.String,
			Zip:      zip.String,
			Position: types.Point{Lat: lat.Float64, Lng: lng.Float64},
		}
	}
	if courierID.Valid {
		c := types.ID(courierID.String)
		o.CourierID = &c
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*Order, error) {
	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func idToStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
