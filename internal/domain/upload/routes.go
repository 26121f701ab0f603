package upload

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers object downloads. Private objects check
// their own token.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/storage/:bucket/*path", h.Serve)
}

// RegisterRoutes registers upload routes under the protected group. owns
// guards the listing the files are attached to.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, owns gin.HandlerFunc) {
	r.POST("/listings/:id/images", owns, h.UploadImage)
	r.POST("/listings/:id/documents", owns, h.UploadDocuments)

	uploads := r.Group("/uploads")
	{
		uploads.DELETE("", h.Delete)
		uploads.POST("/verification", h.UploadVerification)
		uploads.GET("/signed-url", h.SignedURL)
		uploads.POST("/validate", h.Validate)
	}
}
