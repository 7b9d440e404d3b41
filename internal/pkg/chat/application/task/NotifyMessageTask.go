package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	qport "delovrukah-chat/internal/infrastructure/queue/port"
	orderAdapter "delovrukah-chat/internal/pkg/order/persistence/repository/adapter"
	orderRepo "delovrukah-chat/internal/pkg/order/persistence/repository/port"
)

// NotifyMessageTaskType is the queue task name for fanning a new chat message
// out to the notification subsystem.
const NotifyMessageTaskType = "chat:notify_message"

// NotifyMessageTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type NotifyMessageTaskPayload struct {
	OrderID   string `json:"orderId"`
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
	Preview   string `json:"preview,omitempty"`
}

// RegisterNotifyMessageTask binds the notification handler to the provided
// server. The handler resolves the order's participant users and hands the
// recipients (everyone but the sender) to the notification log. Delivery to
// external channels is owned by the notification subsystem; this task only
// records who needs to hear about the message.
func RegisterNotifyMessageTask(srv qport.Server, pool *pgxpool.Pool, log *zap.Logger) {
	srv.Register(NotifyMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: do not retry indefinitely
			return err
		}

		repo := orderAdapter.NewPgOrderRepository(pool)

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		userIDs, err := repo.ParticipantUserIDs(ctx, p.OrderID)
		if errors.Is(err, orderRepo.ErrNotFound) {
			// Order vanished between send and notification; nothing to do.
			log.Warn("notify_message: order no longer exists",
				zap.String("order_id", p.OrderID), zap.String("message_id", p.MessageID))
			return nil
		}
		if err != nil {
			// Transport error: signal retry per adapter policy.
			return err
		}

		recipients := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			if id == p.SenderID {
				continue
			}
			recipients = append(recipients, id)
		}

		log.Info("notify_message: recipients resolved",
			zap.String("order_id", p.OrderID),
			zap.String("message_id", p.MessageID),
			zap.Strings("recipients", recipients))
		return nil
	})
}
