package upload

import "time"

// Bucket names.
const (
	BucketListings     = "listings"
	BucketDocuments    = "documents"
	BucketVerification = "verification-documents"
)

const (
	MaxImageSize    = 5 * 1024 * 1024
	MaxDocumentSize = 10 * 1024 * 1024
)

// ValidationResult is returned instead of an error so callers can show the
// message next to the file input.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Result locates a stored object.
type Result struct {
	Bucket    string     `json:"bucket"`
	Path      string     `json:"path"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Failure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BatchResult reports a multi-file upload file by file.
type BatchResult struct {
	Uploaded []*Result `json:"uploaded"`
	Failed   []Failure `json:"failed"`
}
