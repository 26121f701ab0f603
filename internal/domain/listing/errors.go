package listing

import "errors"

var (
	ErrListingNotFound         = errors.New("listing not found")
	ErrNotOwner                = errors.New("not the listing owner")
	ErrInvalidStatusTransition = errors.New("invalid listing status transition")
	ErrUnknownListingType      = errors.New("unknown listing type")
	ErrDuplicateListingNumber  = errors.New("listing number already exists")
	ErrInvalidAttachment       = errors.New("invalid attachment kind")
)
