package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"freightmarket/internal/domain/listing"
	"freightmarket/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListingOwners resolves who owns a listing.
type ListingOwners interface {
	OwnerOf(ctx context.Context, id string) (int64, error)
}

// OwnershipChecker provides middleware to verify resource ownership
type OwnershipChecker struct {
	listings ListingOwners
}

func NewOwnershipChecker(listings ListingOwners) *OwnershipChecker {
	return &OwnershipChecker{listings: listings}
}

// CheckListingOwnership verifies the user owns the listing.
// Expects listing ID in URL param "id"
func (oc *OwnershipChecker) CheckListingOwnership() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		listingID := c.Param("id")
		if listingID == "" {
			response.Abort(c, http.StatusBadRequest, "INVALID_ID", "Invalid listing ID")
			return
		}

		ownerID, err := oc.listings.OwnerOf(c.Request.Context(), listingID)
		if errors.Is(err, listing.ErrListingNotFound) {
			response.Abort(c, http.StatusNotFound, "LISTING_NOT_FOUND", "Listing not found")
			return
		}
		if err != nil {
			log.Printf("ownership_check_failed listing_id=%s user_id=%d error=%v", listingID, userID, err)
			response.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to check listing ownership")
			return
		}

		if ownerID != userID {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "You don't own this listing")
			return
		}

		c.Next()
	}
}
