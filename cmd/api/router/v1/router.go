package v1

import (
	"github.com/gin-gonic/gin"

	httpHandler "delovrukah-chat/internal/pkg/chat/presentation/http"

	"delovrukah-chat/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, deps controller.SocketDeps) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, deps)
}
