package model

type EventKind int

const (
	EventCreated EventKind = iota
	EventUpdated
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventClosed:
		return "closed"
	}
	return "unknown"
}

// ChangeEvent is one classified transition of one disruption within one run.
// Previous is set for updated and closed events only.
type ChangeEvent struct {
	Kind     EventKind
	Record   Disruption
	Previous *Disruption
}

// NotificationContent is channel-agnostic text; channel-specific formatting
// is up to the individual senders.
type NotificationContent struct {
	Title string
	Body  string
}
