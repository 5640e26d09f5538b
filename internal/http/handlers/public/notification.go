package public

import (
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListNotifications 站内通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	onlyUnread := c.Query("unread") == "1" || c.Query("unread") == "true"
	rows, total, err := h.NotificationService.ListUserNotifications(uid, onlyUnread, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "failed to fetch notifications")
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// MarkNotificationRead 标记已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(uid, id); err != nil {
		respondServiceError(c, err, "failed to update notification")
		return
	}
	response.Success(c, gin.H{"updated": true})
}
