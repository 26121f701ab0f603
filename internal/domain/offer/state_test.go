package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusWithdrawn, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusPending, false},
		{StatusPending, StatusCountered, false},
		{StatusAccepted, StatusRejected, false},
		{StatusRejected, StatusAccepted, false},
		{StatusWithdrawn, StatusPending, false},
		{StatusExpired, StatusAccepted, false},
		{StatusCountered, StatusAccepted, false},
	}

	for _, tt := range tests {
		err := Transition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidStatusTransition, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	for _, s := range []Status{StatusAccepted, StatusRejected, StatusWithdrawn, StatusExpired, StatusCountered} {
		assert.True(t, s.IsTerminal(), s)
	}
}

func TestOffer_Deadline(t *testing.T) {
	early := mustDay(t, "2026-11-01")
	late := mustDay(t, "2026-11-05")

	assert.Nil(t, (&Offer{}).Deadline())
	assert.Equal(t, early, *(&Offer{ExpiresAt: &early}).Deadline())
	assert.Equal(t, early, *(&Offer{ValidUntil: &early}).Deadline())
	assert.Equal(t, early, *(&Offer{ExpiresAt: &late, ValidUntil: &early}).Deadline())
	assert.Equal(t, early, *(&Offer{ExpiresAt: &early, ValidUntil: &late}).Deadline())
}
