package client

// EventKind tags events delivered to subscribers.
type EventKind string

const (
	// Protocol events mirrored from the relay.
	EventRemoteCommand      EventKind = "remote-command"
	EventSyncSlide          EventKind = "sync-slide"
	EventRemoteConnected    EventKind = "remote-connected"
	EventRemoteDisconnected EventKind = "remote-disconnected"
	EventPresentationEnded  EventKind = "presentation-ended"
	EventSlideContent       EventKind = "slide-content"

	// Transport lifecycle events, emitted locally.
	EventDisconnected     EventKind = "disconnected"
	EventReconnected      EventKind = "reconnected"
	EventConnectionFailed EventKind = "connection-failed"
)

// Event is one notification from the relay or the transport layer. Only the
// fields relevant to the Kind are set; SlideIndex is nil when the relayed
// command carried none.
type Event struct {
	Kind EventKind

	Command    string
	SlideIndex *int
	FromClient string

	CurrentSlideIndex int
	TotalSlides       int

	ClientID     string
	TotalRemotes int

	Content string

	Err error
}
