package offer

import "github.com/gin-gonic/gin"

// RegisterRoutes registers authenticated offer routes
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/listings/:id/offers", h.GetForListing)

	offers := r.Group("/offers")
	{
		offers.GET("/sent", h.GetSent)
		offers.GET("/received", h.GetReceived)
		offers.GET("/stats", h.GetStats)
		offers.POST("", h.Create)
		offers.GET("/:id", h.GetByID)
		offers.PATCH("/:id", h.Update)
		offers.POST("/:id/accept", h.Transition(ActionAccept))
		offers.POST("/:id/reject", h.Transition(ActionReject))
		offers.POST("/:id/withdraw", h.Transition(ActionWithdraw))
		offers.DELETE("/:id", h.Delete)
	}
}
