package upload

import "errors"

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrNotOwner         = errors.New("you do not own this file")
	ErrInvalidListingID = errors.New("invalid listing id")
	ErrUnknownBucket    = errors.New("unknown bucket")
	ErrInvalidToken     = errors.New("invalid or expired file token")
)

// FileError carries the user-facing reason a file was refused.
type FileError struct {
	Message string
}

func (e *FileError) Error() string { return e.Message }
