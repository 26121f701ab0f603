package profile

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"freightmarket/internal/pkg/response"
	"freightmarket/internal/pkg/validator"
)

// Handler handles profile HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates profile handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetMe handles GET /api/v1/profiles/me
// @Summary Get my profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404,500 {object} map[string]interface{}
// @Router /profiles/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetInt64("user_id")

	p, err := h.service.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(p, true))
}

// UpdateMe handles PUT /api/v1/profiles/me
// @Summary Update my profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile update"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404,422,500 {object} map[string]interface{}
// @Router /profiles/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	p, err := h.service.Update(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(p, true))
}

// GetPublic handles GET /api/v1/profiles/:userId
// @Summary Get a member's public profile
// @Tags Profiles
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /profiles/{userId} [get]
func (h *Handler) GetPublic(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	p, err := h.service.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(p, false))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrProfileNotFound) {
		response.Error(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		return
	}
	log.Printf("profile_error path=%s error=%v", c.Request.URL.Path, err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
