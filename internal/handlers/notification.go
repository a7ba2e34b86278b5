// internal/handlers/notification.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wheeldeal/wheeldeal-backend/internal/services"
	"github.com/wheeldeal/wheeldeal-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.ListForUser(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(notifications, total, params))
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationService.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			utils.NotFoundResponse(c, "Notification not found")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.MessageResponse(c, "Notification marked as read", nil)
}

// DELETE /notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	if err := h.notificationService.Delete(notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			utils.NotFoundResponse(c, "Notification not found")
			return
		}
		utils.InternalErrorResponse(c, "")
		return
	}

	utils.MessageResponse(c, "Notification deleted", nil)
}
