package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/slidecast/slidecast/internal/domain"
	"github.com/slidecast/slidecast/internal/protocol"
)

func (ctl *Controller) handleJoin(connID domain.ConnID, c *wsConn, msg *protocol.Message) {
	if msg.SessionID == "" {
		ctl.sendJSON(c, protocol.Message{
			Type:    protocol.TypeRemoteJoined,
			Success: protocol.Bool(false),
			Error:   "bad_payload",
		})
		return
	}

	res, err := ctl.Relay.JoinRemote(connID, domain.SessionID(msg.SessionID))
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			log.Error().Err(err).Str("module", "signal").Str("session", msg.SessionID).Msg("join remote")
		}
		ctl.sendJSON(c, protocol.Message{
			Type:    protocol.TypeRemoteJoined,
			Success: protocol.Bool(false),
			Error:   "session not found",
		})
		return
	}
	ctl.sendJSON(c, protocol.Message{
		Type:              protocol.TypeRemoteJoined,
		Success:           protocol.Bool(true),
		CurrentSlideIndex: protocol.Int(res.CurrentSlideIndex),
		TotalSlides:       protocol.Int(res.TotalSlides),
	})
}

// handleCommand relays navigation from a remote. Fire-and-forget: there is
// no reply even when the command is dropped, so a conn that never joined
// cannot probe which sessions exist.
func (ctl *Controller) handleCommand(connID domain.ConnID, msg *protocol.Message) {
	if msg.SessionID == "" || msg.Command == "" {
		return
	}
	if !ctl.limiter.Allow(connID) {
		log.Warn().Str("module", "signal").Str("conn", string(connID)).Msg("command rate limited")
		return
	}
	ctl.Relay.RemoteCommand(connID, domain.SessionID(msg.SessionID), domain.Command(msg.Command), msg.SlideIndex)
}
