package listing

var statusTransitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusCancelled},
	StatusActive: {StatusPaused, StatusCompleted, StatusCancelled, StatusExpired},
	StatusPaused: {StatusActive, StatusCompleted, StatusCancelled, StatusExpired},
}

// CanTransition reports whether a listing may move from one status to another.
// Completed, cancelled and expired listings never change again.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}
