package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"delovrukah-chat/internal/infrastructure/auth"
	"delovrukah-chat/internal/pkg/chat/application/usecase"
	msgport "delovrukah-chat/internal/pkg/chat/persistence/repository/port"
	order "delovrukah-chat/internal/pkg/order/domain"
)

// maxHistoryLimit caps the page size a client may request.
const maxHistoryLimit = 200

// GetMessageController serves an order's chat history over HTTP, so the
// storefront can render past messages before the socket attaches. The caller
// is authenticated by bearer token and authorized through the same conflated
// not-found outcome as socket joins.
type GetMessageController struct {
	verifier *auth.Verifier
	UC       *usecase.GetMessageUseCase
}

func NewGetMessageController(verifier *auth.Verifier, repo msgport.MessageRepository, access usecase.OrderAccess) *GetMessageController {
	return &GetMessageController{
		verifier: verifier,
		UC:       usecase.NewGetMessageUseCase(repo, access),
	}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.verifier.Verify(auth.ExtractToken(c.Request))
		if err != nil {
			// Misconfiguration is surfaced identically to a bad credential.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing credential"})
			return
		}

		orderID := c.Param("orderId")
		if orderID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
			return
		}

		// Defaults
		limit := 50
		offset := 0
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}
		if v := c.Query("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		in := usecase.GetMessageInput{
			OrderID: orderID,
			UserID:  identity.UserID,
			Role:    order.Role(identity.Role),
			Limit:   limit,
			Offset:  offset,
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		msgs, err := h.UC.Execute(ctx, in)
		if err != nil {
			switch {
			case errors.Is(err, order.ErrOrderNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			case errors.Is(err, usecase.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		out := make([]gin.H, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, gin.H{
				"id":        m.ID,
				"orderId":   m.OrderID,
				"senderId":  m.SenderID,
				"text":      m.Text,
				"createdAt": m.CreatedAt,
				"updatedAt": m.UpdatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"messages": out,
			"limit":    limit,
			"offset":   offset,
			"count":    len(out),
		})
	}
}
