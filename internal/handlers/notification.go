package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"opinions/internal/services"
)

const notificationLimit = 50

type NotificationHandler struct {
	notes services.NotificationStore
	log   zerolog.Logger
}

func NewNotificationHandler(notes services.NotificationStore, log zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{notes: notes, log: log}
}

// List 当前用户最近的通知，新的在前
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.notes.Notifications(c.Request.Context(), currentUserID(c), notificationLimit)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": notifications})
}
