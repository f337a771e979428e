package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/dto"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/middleware"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
	"github.com/Mohamed-Salmony/NileStore-sub000/internal/service"
)

type NotificationHandler struct {
	notifyService *service.NotificationService
}

func NewNotificationHandler(notifyService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifyService: notifyService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notifications, total, err := h.notifyService.List(
		c.Request.Context(), middleware.GetUserID(c), req.Limit, (req.Page-1)*req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	resp := dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(notifications)),
		Total:         total,
		Page:          req.Page,
		Limit:         req.Limit,
	}
	for i := range notifications {
		resp.Notifications = append(resp.Notifications, toNotificationResponse(&notifications[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifyService.UnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	if err := h.notifyService.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifyService.MarkAllRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification ID"})
		return
	}

	if err := h.notifyService.Delete(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Broadcast queues a store-wide announcement. It returns as soon as the
// message is on the queue; the worker does the fan-out.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	typ := model.NotificationAdminMessage
	if req.Type == string(model.NotificationPromotion) {
		typ = model.NotificationPromotion
	}

	broadcastID, err := h.notifyService.Broadcast(c.Request.Context(),
		typ,
		model.Bilingual{Ar: req.TitleAr, En: req.TitleEn},
		model.Bilingual{Ar: req.MessageAr, En: req.MessageEn},
		req.Data,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"broadcast_id": broadcastID})
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}
