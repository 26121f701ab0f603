package offer

import "fmt"

// Action is a lifecycle step requested on an offer.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionWithdraw Action = "withdraw"
	ActionExpire   Action = "expire"
)

type role int

const (
	roleListingOwner role = iota
	roleCreator
	roleSystem
)

type step struct {
	to Status
	by role
}

var steps = map[Action]step{
	ActionAccept:   {to: StatusAccepted, by: roleListingOwner},
	ActionReject:   {to: StatusRejected, by: roleListingOwner},
	ActionWithdraw: {to: StatusWithdrawn, by: roleCreator},
	ActionExpire:   {to: StatusExpired, by: roleSystem},
}

// Only pending offers move, and every move ends the lifecycle.
var transitions = map[Status][]Status{
	StatusPending: {StatusAccepted, StatusRejected, StatusWithdrawn, StatusExpired},
}

// Transition checks that an offer may go from one status to another.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
}

// IsTerminal reports whether the offer can no longer change status.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
