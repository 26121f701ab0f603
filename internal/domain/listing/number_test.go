package listing

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateListingNumber_Format(t *testing.T) {
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^NK260307\d{4}$`)

	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, GenerateListingNumber(now))
	}
}
