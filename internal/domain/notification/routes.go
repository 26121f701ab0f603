package notification

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers the event socket, which authenticates itself
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/ws/events", h.Events)
}

// RegisterRoutes registers inbox routes
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.PATCH("/:id/read", h.MarkAsRead)
		notifications.POST("/read-all", h.MarkAllAsRead)
	}
}
