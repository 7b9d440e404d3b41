package http

import (
	"github.com/gin-gonic/gin"

	"delovrukah-chat/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes registers chat-related endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, deps controller.SocketDeps) {
	socketCtl := controller.NewOrderChatSocketController(deps)
	getMsgCtl := controller.NewGetMessageController(deps.Verifier, deps.Messages, deps.Access)

	// GET /api/v1/chat/ws -> websocket endpoint for order-scoped realtime chat
	g.GET("/chat/ws", socketCtl.Handle())

	// GET /api/v1/orders/:orderId/messages -> chat history, oldest first
	g.GET("/orders/:orderId/messages", getMsgCtl.Handle())
}
