package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"delovrukah-chat/internal/infrastructure/auth"
	"delovrukah-chat/internal/infrastructure/metrics"
	qport "delovrukah-chat/internal/infrastructure/queue/port"
	"delovrukah-chat/internal/infrastructure/realtime"
	"delovrukah-chat/internal/pkg/chat/application/task"
	"delovrukah-chat/internal/pkg/chat/application/usecase"
	chat "delovrukah-chat/internal/pkg/chat/domain"
	msgport "delovrukah-chat/internal/pkg/chat/persistence/repository/port"
	order "delovrukah-chat/internal/pkg/order/domain"
)

// closeUnauthenticated is the websocket close code used when the handshake
// credential fails verification.
const closeUnauthenticated = 4401

const defaultReadTimeout = 60 * time.Second

// SocketDeps wires the gateway's collaborators. Router and Verifier are
// required; Queue, Relay and Metrics are optional and skipped when nil.
type SocketDeps struct {
	Router   *realtime.Router
	Verifier *auth.Verifier
	Messages msgport.MessageRepository
	Access   usecase.OrderAccess
	Queue    qport.Client
	Relay    *realtime.Relay
	Metrics  *metrics.ChatMetrics
	Log      *zap.Logger
}

// OrderChatSocketController owns the websocket endpoint for order-scoped
// realtime chat: connection authentication, room joins, message submission
// and broadcast. Frame routing goes through an explicit dispatch table and an
// ordered guard pipeline; there is no reflection-driven binding.
type OrderChatSocketController struct {
	router          *realtime.Router
	verifier        *auth.Verifier
	sendMessageUC   *usecase.SendMessageUseCase
	joinOrderUC     *usecase.JoinOrderUseCase
	queue           qport.Client
	relay           *realtime.Relay
	metrics         *metrics.ChatMetrics
	log             *zap.Logger
	inflightTimeout time.Duration

	handlers map[string]frameHandler
	guards   []guard
}

// frameHandler processes one inbound frame on behalf of a connection.
type frameHandler func(ctx context.Context, conn *realtime.Connection, frame inboundFrame)

// guard is one step of the pre-dispatch pipeline. A non-nil error rejects the
// frame; terminate additionally drops the connection.
type guard func(conn *realtime.Connection, frame inboundFrame) (terminate bool, err error)

func NewOrderChatSocketController(deps SocketDeps) *OrderChatSocketController {
	ctl := &OrderChatSocketController{
		router:          deps.Router,
		verifier:        deps.Verifier,
		sendMessageUC:   usecase.NewSendMessageUseCase(deps.Messages, deps.Access),
		joinOrderUC:     usecase.NewJoinOrderUseCase(deps.Access),
		queue:           deps.Queue,
		relay:           deps.Relay,
		metrics:         deps.Metrics,
		log:             deps.Log,
		inflightTimeout: 5 * time.Second,
	}
	ctl.handlers = map[string]frameHandler{
		"joinOrder":   ctl.handleJoinOrder,
		"leaveOrder":  ctl.handleLeaveOrder,
		"sendMessage": ctl.handleSendMessage,
	}
	ctl.guards = []guard{
		ctl.requireIdentity,
	}
	return ctl
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{auth.BearerSubprotocol},
	CheckOrigin: func(r *http.Request) bool {
		// The token is the access control; origin checks stay open for the
		// storefront's varying hosts.
		return true
	},
}

type inboundFrame struct {
	Type    string `json:"type"`
	OrderID string `json:"orderId,omitempty"`
	Text    string `json:"text,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
}

type outboundMessage struct {
	Type    string         `json:"type"`
	Message messagePayload `json:"message"`
}

type messagePayload struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Handle upgrades HTTP connections to websocket, authenticates the handshake
// credential and processes frames until the client disconnects. Only the
// connect-time authentication failure terminates the connection; every error
// inside a request handler is scoped to that single frame.
func (ctl *OrderChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := auth.ExtractToken(c.Request)

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		identity, err := ctl.verifier.Verify(rawToken)
		if err != nil {
			// A missing secret is a server fault, logged as such, but the
			// client sees the same rejection as for a bad credential so
			// configuration state does not leak.
			if errors.Is(err, auth.ErrServerMisconfigured) {
				ctl.log.Error("chat socket: signing secret is not configured")
			}
			ctl.countConnection("rejected")
			_ = ws.WriteJSON(errorFrame{Type: "error", Code: "unauthenticated", Error: "invalid or missing credential"})
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(closeUnauthenticated, "authentication failed"),
				time.Now().Add(time.Second))
			_ = ws.Close()
			return
		}

		ctl.countConnection("accepted")
		conn := realtime.NewConnection(identity, rawToken, ws)
		ctl.router.Attach(conn)
		defer func() {
			ctl.router.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ctl.log.Info("chat socket: connected",
			zap.String("session_id", conn.ID), zap.String("user_id", identity.UserID))

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Type: "connected"}); err == nil {
			_ = conn.Send(payload)
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.countFrame("invalid", "rejected")
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			if !ctl.runGuards(conn, frame) {
				return
			}

			handler, ok := ctl.handlers[frame.Type]
			if !ok {
				ctl.countFrame(frame.Type, "rejected")
				ctl.replyError(conn, "bad_request", "unknown frame type")
				continue
			}
			handler(c.Request.Context(), conn, frame)
		}
	}
}

// runGuards applies the guard pipeline in order, short-circuiting on the
// first failure. Returns false when the connection must be dropped.
func (ctl *OrderChatSocketController) runGuards(conn *realtime.Connection, frame inboundFrame) bool {
	for _, g := range ctl.guards {
		terminate, err := g(conn, frame)
		if err == nil {
			continue
		}
		ctl.replyError(conn, "unauthenticated", err.Error())
		if terminate {
			conn.Close(closeUnauthenticated, "authentication failed")
			return false
		}
		return true
	}
	return true
}

// requireIdentity ensures the connection carries a verified identity before
// any handler runs. A connection should never reach this point without one;
// if it somehow does, the verifier is re-run against the credential captured
// at connect time rather than failing outright.
func (ctl *OrderChatSocketController) requireIdentity(conn *realtime.Connection, _ inboundFrame) (bool, error) {
	if conn.Identity != nil {
		return false, nil
	}
	identity, err := ctl.verifier.Verify(conn.Credential)
	if err != nil {
		return true, errors.New("invalid or missing credential")
	}
	conn.Identity = identity
	return false, nil
}

func (ctl *OrderChatSocketController) handleJoinOrder(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.OrderID == "" {
		ctl.countFrame("joinOrder", "rejected")
		ctl.replyError(conn, "bad_request", "Order ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	err := ctl.joinOrderUC.Execute(ctx, usecase.JoinOrderInput{
		OrderID: frame.OrderID,
		UserID:  conn.UserID(),
		Role:    order.Role(conn.Identity.Role),
	})
	if err != nil {
		ctl.countFrame("joinOrder", "rejected")
		ctl.replyUseCaseError(conn, err)
		return
	}

	room := chat.RoomName(frame.OrderID)
	ctl.router.Join(room, conn)
	ctl.countFrame("joinOrder", "ok")

	if payload, err := json.Marshal(ackFrame{Type: "joined", Room: room}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *OrderChatSocketController) handleLeaveOrder(_ context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.OrderID == "" {
		ctl.countFrame("leaveOrder", "rejected")
		ctl.replyError(conn, "bad_request", "Order ID is required")
		return
	}
	room := chat.RoomName(frame.OrderID)
	ctl.router.Leave(room, conn)
	ctl.countFrame("leaveOrder", "ok")

	if payload, err := json.Marshal(ackFrame{Type: "left", Room: room}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *OrderChatSocketController) handleSendMessage(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.OrderID == "" {
		ctl.countFrame("sendMessage", "rejected")
		ctl.replyError(conn, "bad_request", "Order ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()

	// Authorization runs inside the use case on every send, regardless of any
	// earlier join: joining and sending are authorized separately.
	result, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		OrderID:  frame.OrderID,
		SenderID: conn.UserID(),
		Role:     order.Role(conn.Identity.Role),
		Text:     frame.Text,
	})
	if err != nil {
		ctl.countFrame("sendMessage", "rejected")
		ctl.replyUseCaseError(conn, err)
		return
	}

	if ctl.metrics != nil {
		ctl.metrics.MessagesPersisted.Inc()
	}

	out := outboundMessage{Type: "newMessage", Message: toPayload(*result)}
	payload, err := json.Marshal(out)
	if err != nil {
		ctl.replyError(conn, "internal_error", "failed to encode message")
		return
	}

	room := chat.RoomName(frame.OrderID)
	delivered := ctl.router.Broadcast(room, payload)
	if ctl.metrics != nil {
		ctl.metrics.BroadcastsTotal.Inc()
	}
	ctl.countFrame("sendMessage", "ok")

	if ctl.relay != nil {
		if err := ctl.relay.Publish(ctx, room, payload); err != nil {
			// Cross-node delivery gap only; the send itself succeeded.
			ctl.log.Warn("chat socket: relay publish failed",
				zap.String("room", room), zap.Error(err))
		}
	}

	ctl.enqueueNotification(ctx, *result)

	ctl.log.Debug("chat socket: message broadcast",
		zap.String("room", room), zap.Int("delivered", delivered))

	// The handler's own reply mirrors the broadcast payload.
	if ack, err := json.Marshal(outboundMessage{Type: "messageSent", Message: toPayload(*result)}); err == nil {
		_ = conn.Send(ack)
	}
}

// enqueueNotification hands the persisted message to the notification queue.
// Best effort: a queue failure never fails the send.
func (ctl *OrderChatSocketController) enqueueNotification(ctx context.Context, msg chat.Message) {
	if ctl.queue == nil {
		return
	}
	preview := msg.Text
	if len(preview) > 140 {
		preview = preview[:140]
	}
	b, err := json.Marshal(task.NotifyMessageTaskPayload{
		OrderID:   msg.OrderID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		Preview:   preview,
	})
	if err != nil {
		return
	}
	opts := qport.EnqueueOption{Queue: "notifications", MaxRetry: 10}
	if _, err := ctl.queue.Enqueue(ctx, qport.Task{Type: task.NotifyMessageTaskType, Payload: b}, opts); err != nil {
		ctl.log.Warn("chat socket: notification enqueue failed",
			zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func (ctl *OrderChatSocketController) replyUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	case errors.Is(err, order.ErrOrderNotFound):
		// "order absent" and "caller not a participant" are deliberately the
		// same outcome.
		ctl.replyError(conn, "not_found", "Order not found")
	case errors.Is(err, chat.ErrEmptyMessage):
		ctl.replyError(conn, "bad_request", "Message text is required")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *OrderChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	frame := errorFrame{
		Type:  "error",
		Code:  code,
		Error: message,
	}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *OrderChatSocketController) countConnection(outcome string) {
	if ctl.metrics != nil {
		ctl.metrics.ConnectionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (ctl *OrderChatSocketController) countFrame(frameType, outcome string) {
	if ctl.metrics != nil {
		ctl.metrics.FramesTotal.WithLabelValues(frameType, outcome).Inc()
	}
}

func toPayload(msg chat.Message) messagePayload {
	return messagePayload{
		ID:        msg.ID,
		OrderID:   msg.OrderID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	}
}
