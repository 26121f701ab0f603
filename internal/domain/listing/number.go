package listing

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateListingNumber returns "NK" followed by the date as YYMMDD and four
// random digits, e.g. NK2410180042.
func GenerateListingNumber(now time.Time) string {
	return fmt.Sprintf("NK%s%04d", now.Format("060102"), rand.Intn(10000))
}
