package profile

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers routes that need no authentication
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/profiles/:userId", h.GetPublic)
}

// RegisterRoutes registers the caller's own profile routes
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	me := r.Group("/profiles/me")
	{
		me.GET("", h.GetMe)
		me.PUT("", h.UpdateMe)
	}
}
