package listing

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"freightmarket/internal/pkg/response"
	"freightmarket/internal/pkg/validator"
)

// Handler handles listing HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates listing handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetActive handles GET /api/v1/listings
// @Summary Active listings, newest first
// @Tags Listings
// @Produce json
// @Param limit query int false "Max rows"
// @Success 200 {object} map[string]interface{}
// @Router /listings [get]
func (h *Handler) GetActive(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	out, err := h.service.GetActiveListings(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"listings": out})
}

// Search handles GET /api/v1/listings/search
// @Summary Search active listings
// @Tags Listings
// @Produce json
// @Param q query string false "Text in title or description"
// @Param listing_type query string false "load_listing, shipment_request or transport_service"
// @Param origin query string false "Origin contains"
// @Param destination query string false "Destination contains"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param priority query string false "low, normal, high or urgent"
// @Success 200 {object} map[string]interface{}
// @Failure 400,422 {object} map[string]interface{}
// @Router /listings/search [get]
func (h *Handler) Search(c *gin.Context) {
	var f SearchFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid search parameters")
		return
	}
	if errs := validator.Validate(&f); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	out, err := h.service.SearchListings(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"listings": out})
}

// GetByID handles GET /api/v1/listings/:id
// @Summary Listing detail with owner
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /listings/{id} [get]
func (h *Handler) GetByID(c *gin.Context) {
	l, err := h.service.GetListingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// GetMine handles GET /api/v1/users/me/listings
// @Summary My listings
// @Tags Listings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /users/me/listings [get]
func (h *Handler) GetMine(c *gin.Context) {
	out, err := h.service.GetUserListings(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"listings": out})
}

// Create handles POST /api/v1/listings
// @Summary Create a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateListingRequest true "Listing"
// @Success 201 {object} map[string]interface{}
// @Failure 400,409,422 {object} map[string]interface{}
// @Router /listings [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	l, err := h.service.CreateListing(c.Request.Context(), c.GetInt64("user_id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, l)
}

// Update handles PATCH /api/v1/listings/:id
// @Summary Partially update a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param request body UpdateListingRequest true "Changed fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400,403,404,409,422 {object} map[string]interface{}
// @Router /listings/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	l, err := h.service.UpdateListing(c.Request.Context(), c.Param("id"), c.GetInt64("user_id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// UpdateStatus handles PATCH /api/v1/listings/:id/status
// @Summary Pause, resume or close a listing
// @Tags Listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 400,403,404,409,422 {object} map[string]interface{}
// @Router /listings/{id}/status [patch]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationFailed(c, errs)
		return
	}

	l, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), c.GetInt64("user_id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// Delete handles DELETE /api/v1/listings/:id
// @Summary Delete a listing and its offers
// @Tags Listings
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404 {object} map[string]interface{}
// @Router /listings/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.DeleteListing(c.Request.Context(), c.Param("id"), c.GetInt64("user_id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// Normalize handles POST /api/v1/admin/listings/normalize
// @Summary Move nested required_documents to the top-level column
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /admin/listings/normalize [post]
func (h *Handler) Normalize(c *gin.Context) {
	n, err := h.service.NormalizeMetadata(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verrs validator.Errors
	switch {
	case errors.As(err, &verrs):
		response.ValidationFailed(c, verrs)
	case errors.Is(err, ErrListingNotFound):
		response.Error(c, http.StatusNotFound, "LISTING_NOT_FOUND", "Listing not found")
	case errors.Is(err, ErrNotOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this listing")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Listing status cannot change this way")
	case errors.Is(err, ErrDuplicateListingNumber):
		response.Error(c, http.StatusConflict, "LISTING_NUMBER_EXISTS", "Listing number already in use")
	case errors.Is(err, ErrUnknownListingType), errors.Is(err, ErrInvalidAttachment):
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	default:
		log.Printf("listing_error method=%s path=%s user_id=%d error=%v", c.Request.Method, c.Request.URL.Path, c.GetInt64("user_id"), err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
