package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	order "delovrukah-chat/internal/pkg/order/domain"
	repository "delovrukah-chat/internal/pkg/order/persistence/repository/port"
)

type PgOrderRepository struct {
	pool *pgxpool.Pool
}

func NewPgOrderRepository(pool *pgxpool.Pool) *PgOrderRepository {
	return &PgOrderRepository{pool: pool}
}

var _ repository.OrderRepository = (*PgOrderRepository)(nil)

func (r *PgOrderRepository) CustomerProfileID(ctx context.Context, userID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgOrderRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx,
		"SELECT id::text FROM customer_profiles WHERE user_id = $1::uuid",
		userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return id, err
}

func (r *PgOrderRepository) ProviderProfileID(ctx context.Context, userID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgOrderRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx,
		"SELECT id::text FROM provider_profiles WHERE user_id = $1::uuid",
		userID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return id, err
}

func (r *PgOrderRepository) OrderParticipants(ctx context.Context, orderID string) (*order.Participants, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgOrderRepository: nil pool")
	}

	p := order.Participants{OrderID: orderID}
	err := r.pool.QueryRow(ctx,
		"SELECT customer_profile_id::text, created_at FROM orders WHERE id = $1::uuid",
		orderID,
	).Scan(&p.CustomerProfileID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT pp.provider_profile_id::text
		FROM order_items oi
		JOIN provider_prices pp ON pp.id = oi.provider_price_id
		WHERE oi.order_id = $1::uuid
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		p.ProviderProfileIDs = append(p.ProviderProfileIDs, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return &p, nil
}

func (r *PgOrderRepository) ParticipantUserIDs(ctx context.Context, orderID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgOrderRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT cp.user_id::text
		FROM orders o
		JOIN customer_profiles cp ON cp.id = o.customer_profile_id
		WHERE o.id = $1::uuid
		UNION
		SELECT DISTINCT prof.user_id::text
		FROM order_items oi
		JOIN provider_prices pp ON pp.id = oi.provider_price_id
		JOIN provider_profiles prof ON prof.id = pp.provider_profile_id
		WHERE oi.order_id = $1::uuid
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(ids) == 0 {
		return nil, repository.ErrNotFound
	}
	return ids, nil
}
