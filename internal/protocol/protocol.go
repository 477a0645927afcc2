// Package protocol defines the wire format spoken between the relay server
// and its clients: a JSON envelope with a type tag and optional fields,
// carried over a WebSocket text stream.
package protocol

// Client-to-server message types.
const (
	TypeCreatePresentation = "create-presentation"
	TypeJoinRemote         = "join-remote"
	TypeRemoteCommand      = "remote-command"
	TypeUpdatePresentation = "update-presentation"
	TypeShareContent       = "share-presentation-content"
)

// Server-to-client message types. PresentationCreated and RemoteJoined are
// the replies to CreatePresentation and JoinRemote; the rest are unsolicited.
const (
	TypePresentationCreated = "presentation-created"
	TypeRemoteJoined        = "remote-joined"
	TypeRemoteConnected     = "remote-connected"
	TypeRemoteDisconnected  = "remote-disconnected"
	TypeSyncSlide           = "sync-slide"
	TypePresentationEnded   = "presentation-ended"
	TypeSlideContent        = "slide-content"
)

// Message is the envelope for every frame in both directions. Fields are
// pointers where absence and zero must be told apart (slide indices).
type Message struct {
	Type string `json:"type"`

	SessionID string `json:"sessionId,omitempty"`
	Command   string `json:"command,omitempty"`

	SlideIndex        *int `json:"slideIndex,omitempty"`
	CurrentSlideIndex *int `json:"currentSlideIndex,omitempty"`
	TotalSlides       *int `json:"totalSlides,omitempty"`

	Success    *bool  `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
	QRURL      string `json:"qrUrl,omitempty"`
	Content    string `json:"content,omitempty"`
	FromClient string `json:"fromClient,omitempty"`
	ClientID   string `json:"clientId,omitempty"`

	TotalRemotes int `json:"totalRemotes,omitempty"`
}

// Int is a convenience for filling optional index fields.
func Int(v int) *int { return &v }

// Bool fills the Success field; false must survive serialization in replies.
func Bool(v bool) *bool { return &v }

// Ok reports Success, treating absence as failure.
func (m *Message) Ok() bool { return m.Success != nil && *m.Success }
