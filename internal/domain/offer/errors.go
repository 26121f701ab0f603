package offer

import "errors"

var (
	ErrOfferNotFound           = errors.New("offer not found")
	ErrListingNotFound         = errors.New("listing not found")
	ErrTransportServiceListing = errors.New("offers on transport service listings are not supported")
	ErrOwnListing              = errors.New("cannot make an offer on your own listing")
	ErrListingNotActive        = errors.New("listing is not accepting offers")
	ErrListingAlreadyAwarded   = errors.New("listing already has an accepted offer")
	ErrForbidden               = errors.New("not allowed to act on this offer")
	ErrOfferNotPending         = errors.New("offer is no longer pending")
	ErrInvalidStatusTransition = errors.New("invalid offer status transition")
	ErrStaleOffer              = errors.New("offer was changed by someone else")
	ErrUnknownAction           = errors.New("unknown offer action")
)
