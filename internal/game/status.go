package game

var statusTransitions = map[Status][]Status{
	StatusDraft:     {StatusTesting, StatusPublished, StatusArchived},
	StatusTesting:   {StatusDraft, StatusPublished, StatusArchived},
	StatusPublished: {StatusTesting, StatusArchived},
	StatusArchived:  nil,
}

func ParseStatus(raw string) (Status, bool) {
	status := Status(raw)
	_, ok := statusTransitions[status]
	return status, ok
}

// CanTransition reports whether a creator may move a definition from one
// status to another. Archived is terminal.
func CanTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Playable reports whether a definition in this status may be play-loaded or
// started as a session.
func (s Status) Playable() bool {
	return s != StatusArchived
}
