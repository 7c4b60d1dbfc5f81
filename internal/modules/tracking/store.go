// README: Position store; append-only history in Postgres, latest sample cached in Redis.
package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

const (
	lastPositionKeyPrefix = "tracking:order:%s:last"
	// Latest-position cache TTL; deliveries resolve well within a day.
	lastPositionTTL = 24 * time.Hour
)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// Append records one sample at the end of the order's position history and
// refreshes the latest-position cache. History rows are never rewritten.
func (s *Store) Append(ctx context.Context, orderID types.ID, sample Sample) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_positions (order_id, lat, lng, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		string(orderID), sample.Position.Lat, sample.Position.Lng, sample.RecordedAt,
	)
	if err != nil {
		return err
	}
	if s.redis != nil {
		body, _ := json.Marshal(sample)
		// Cache refresh is best-effort; history already holds the sample.
		_ = s.redis.Set(ctx, lastPositionKey(orderID), body, lastPositionTTL).Err()
	}
	return nil
}

// Last returns the most recent sample for an order, preferring the Redis
// cache and falling back to the history table. ok is false when the order has
// no recorded positions yet.
func (s *Store) Last(ctx context.Context, orderID types.ID) (Sample, bool, error) {
	if s.redis != nil {
		val, err := s.redis.Get(ctx, lastPositionKey(orderID)).Result()
		if err == nil {
			var sample Sample
			if err := json.Unmarshal([]byte(val), &sample); err == nil {
				return sample, true, nil
			}
		} else if err != redis.Nil {
			return Sample{}, false, err
		}
	}

	row := s.db.QueryRow(ctx, `
		SELECT lat, lng, recorded_at
		FROM order_positions
		WHERE order_id = $1
		ORDER BY id DESC
		LIMIT 1`, string(orderID),
	)
	var sample Sample
	err := row.Scan(&sample.Position.Lat, &sample.Position.Lng, &sample.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sample{}, false, nil
	}
	if err != nil {
		return Sample{}, false, err
	}
	return sample, true, nil
}

// History returns every recorded sample for an order in append order.
func (s *Store) History(ctx context.Context, orderID types.ID) ([]Sample, error) {
	rows, err := s.db.Query(ctx, `
		SELECT lat, lng, recorded_at
		FROM order_positions
		WHERE order_id = $1
		ORDER BY id`, string(orderID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sample Sample
		if err := rows.Scan(&sample.Position.Lat, &sample.Position.Lng, &sample.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

func lastPositionKey(orderID types.ID) string {
	return fmt.Sprintf(lastPositionKeyPrefix, string(orderID))
}
