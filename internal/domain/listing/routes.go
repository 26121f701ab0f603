package listing

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers read-only listing routes
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	listings := r.Group("/listings")
	{
		listings.GET("", h.GetActive)
		listings.GET("/search", h.Search)
		listings.GET("/:id", h.GetByID)
	}
}

// RegisterRoutes registers authenticated listing routes. owns guards the
// mutations of a single listing.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, owns gin.HandlerFunc) {
	r.GET("/users/me/listings", h.GetMine)

	listings := r.Group("/listings")
	{
		listings.POST("", h.Create)
		listings.PATCH("/:id", owns, h.Update)
		listings.PATCH("/:id/status", owns, h.UpdateStatus)
		listings.DELETE("/:id", owns, h.Delete)
	}
}

// RegisterAdminRoutes registers maintenance routes; r must already require
// the admin role.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/admin/listings/normalize", h.Normalize)
}
