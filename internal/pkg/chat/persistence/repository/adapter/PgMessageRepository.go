package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	chat "delovrukah-chat/internal/pkg/chat/domain"
)

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errors.New("PgMessageRepository: nil pool")
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (order_id, sender_id, text)
		VALUES ($1::uuid, $2::uuid, $3)
		RETURNING id::text, created_at, updated_at
	`, m.OrderID, m.SenderID, m.Text).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

func (r *PgMessageRepository) GetMessagesByOrder(ctx context.Context, orderID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, order_id::text, sender_id::text, text, created_at, updated_at
		FROM chat_messages
		WHERE order_id = $1::uuid
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, orderID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.OrderID, &msg.SenderID, &msg.Text, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
