package offer

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"freightmarket/internal/pkg/response"
	"freightmarket/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetSent handles GET /api/v1/offers/sent
// @Summary Offers I made
// @Tags Offers
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /offers/sent [get]
func (h *Handler) GetSent(c *gin.Context) {
	out, err := h.service.GetSentOffers(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"offers": out})
}

// GetReceived handles GET /api/v1/offers/received
// @Summary Offers made on my listings
// @Tags Offers
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /offers/received [get]
func (h *Handler) GetReceived(c *gin.Context) {
	out, err := h.service.GetReceivedOffers(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"offers": out})
}

// GetStats handles GET /api/v1/offers/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetOfferStats(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Create handles POST /api/v1/offers
// @Summary Make an offer on a listing
// @Tags Offers
// @Security BearerAuth
// @Accept json
// @Param request body CreateOfferRequest true "Offer"
// @Success 201 {object} map[string]interface{}
// @Failure 400,404,409,422 {object} map[string]interface{}
// @Router /offers [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	o, err := h.service.CreateOffer(c.Request.Context(), c.GetInt64("user_id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, o)
}

// GetByID handles GET /api/v1/offers/:id
func (h *Handler) GetByID(c *gin.Context) {
	o, err := h.service.GetOffer(c.Request.Context(), c.Param("id"), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

// Update handles PATCH /api/v1/offers/:id
// @Summary Edit a pending offer
// @Tags Offers
// @Security BearerAuth
// @Accept json
// @Param id path string true "Offer ID"
// @Param request body UpdateOfferRequest true "Changed fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400,403,404,409,422 {object} map[string]interface{}
// @Router /offers/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	o, err := h.service.UpdateOffer(c.Request.Context(), c.Param("id"), c.GetInt64("user_id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, o)
}

// Transition returns the handler for POST /api/v1/offers/:id/{accept,reject,withdraw}.
// The body is optional: {"version": n}.
func (h *Handler) Transition(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
			return
		}

		o, err := h.service.TransitionOffer(c.Request.Context(), c.Param("id"), c.GetInt64("user_id"), action, req.Version)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, o)
	}
}

// Delete handles DELETE /api/v1/offers/:id
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.DeleteOffer(c.Request.Context(), c.Param("id"), c.GetInt64("user_id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GetForListing handles GET /api/v1/listings/:id/offers
// @Summary Offers on one of my listings, with carrier profiles
// @Tags Offers
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404 {object} map[string]interface{}
// @Router /listings/{id}/offers [get]
func (h *Handler) GetForListing(c *gin.Context) {
	out, err := h.service.GetOffersForListing(c.Request.Context(), c.Param("id"), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"offers": out})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verrs validator.Errors
	switch {
	case errors.As(err, &verrs):
		response.ValidationFailed(c, verrs)
	case errors.Is(err, ErrOfferNotFound):
		response.Error(c, http.StatusNotFound, "OFFER_NOT_FOUND", "Offer not found")
	case errors.Is(err, ErrListingNotFound):
		response.Error(c, http.StatusNotFound, "LISTING_NOT_FOUND", "Listing not found")
	case errors.Is(err, ErrTransportServiceListing):
		response.Error(c, http.StatusUnprocessableEntity, "TRANSPORT_SERVICE_LISTING", "Offers cannot be made on transport service listings")
	case errors.Is(err, ErrOwnListing):
		response.Error(c, http.StatusUnprocessableEntity, "OWN_LISTING", "You cannot make an offer on your own listing")
	case errors.Is(err, ErrListingNotActive):
		response.Error(c, http.StatusConflict, "LISTING_NOT_ACTIVE", "Listing is not accepting offers")
	case errors.Is(err, ErrListingAlreadyAwarded):
		response.Error(c, http.StatusConflict, "OFFER_ALREADY_ACCEPTED", "Another offer on this listing is already accepted")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to do this")
	case errors.Is(err, ErrOfferNotPending):
		response.Error(c, http.StatusConflict, "OFFER_NOT_PENDING", "Only pending offers can be edited")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Offer status cannot change this way")
	case errors.Is(err, ErrStaleOffer):
		response.Error(c, http.StatusConflict, "STALE_OFFER", "Offer was changed, reload and try again")
	case errors.Is(err, ErrUnknownAction):
		response.Error(c, http.StatusBadRequest, "UNKNOWN_ACTION", "Unknown offer action")
	default:
		log.Printf("offer_error method=%s path=%s user_id=%d error=%v", c.Request.Method, c.Request.URL.Path, c.GetInt64("user_id"), err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
