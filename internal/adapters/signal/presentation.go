package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/slidecast/slidecast/internal/domain"
	"github.com/slidecast/slidecast/internal/protocol"
)

func (ctl *Controller) handleCreate(connID domain.ConnID, origin string, c *wsConn) {
	res, err := ctl.Relay.CreatePresentation(connID, origin)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("create presentation")
		ctl.sendJSON(c, protocol.Message{
			Type:    protocol.TypePresentationCreated,
			Success: protocol.Bool(false),
			Error:   "internal error",
		})
		return
	}
	ctl.sendJSON(c, protocol.Message{
		Type:      protocol.TypePresentationCreated,
		Success:   protocol.Bool(true),
		SessionID: string(res.SessionID),
		QRURL:     res.JoinURL,
	})
}

// handleUpdate is the host's position tick. A payload without both indices
// is malformed and dropped; authorization happens in the relay.
func (ctl *Controller) handleUpdate(connID domain.ConnID, msg *protocol.Message) {
	if msg.SessionID == "" || msg.CurrentSlideIndex == nil || msg.TotalSlides == nil {
		return
	}
	ctl.Relay.UpdatePresentation(connID, domain.SessionID(msg.SessionID), *msg.CurrentSlideIndex, *msg.TotalSlides)
}

func (ctl *Controller) handleShare(connID domain.ConnID, msg *protocol.Message) {
	if msg.SessionID == "" {
		return
	}
	ctl.Relay.ShareContent(connID, domain.SessionID(msg.SessionID), msg.Content)
}
