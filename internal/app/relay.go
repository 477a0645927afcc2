package app

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/slidecast/slidecast/internal/domain"
	"github.com/slidecast/slidecast/internal/protocol"
)

// Sender is the transport endpoint the relay fans out to.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(data []byte) error
}

// Relay implements the presentation session protocol: it owns the peer table
// (conn id -> transport endpoint), mutates the session registry, and fans
// notifications out to session members.
//
// One mutex serializes every operation, so broadcast order always matches
// apply order and commands from a single remote are never reordered.
// Commands from different remotes race in arrival order, last-applied-wins.
type Relay struct {
	registry *Registry
	baseURL  string
	idLength int

	mu    sync.Mutex
	peers map[domain.ConnID]Sender
}

func NewRelay(registry *Registry, baseURL string, idLength int) *Relay {
	return &Relay{
		registry: registry,
		baseURL:  strings.TrimRight(baseURL, "/"),
		idLength: idLength,
		peers:    make(map[domain.ConnID]Sender),
	}
}

// Register binds a connected peer to the relay. Must be called before the
// peer issues any protocol message.
func (r *Relay) Register(conn domain.ConnID, s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[conn] = s
}

type CreateResult struct {
	SessionID domain.SessionID
	JoinURL   string
}

// CreatePresentation registers a new session with conn as host. origin is the
// request-derived base used when no base URL is configured.
func (r *Relay) CreatePresentation(conn domain.ConnID, origin string) (CreateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sess *domain.Session
	for {
		id, err := domain.NewSessionID(r.idLength)
		if err != nil {
			return CreateResult{}, err
		}
		sess, err = r.registry.Create(id, conn)
		if err == nil {
			break
		}
		// id collision, roll again
	}

	base := r.baseURL
	if base == "" {
		base = strings.TrimRight(origin, "/")
	}
	res := CreateResult{
		SessionID: sess.ID,
		JoinURL:   base + "/remote/" + string(sess.ID),
	}
	log.Info().Str("module", "app.relay").Str("session", string(sess.ID)).Str("host", string(conn)).Str("url", res.JoinURL).Msg("presentation created")
	return res, nil
}

type JoinResult struct {
	CurrentSlideIndex int
	TotalSlides       int
}

// JoinRemote adds conn as a remote of the session and tells the host about
// it. The reply carries the current position so a late joiner renders the
// right slide immediately.
func (r *Relay) JoinRemote(conn domain.ConnID, id domain.SessionID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.registry.Get(id)
	if !ok {
		return JoinResult{}, domain.ErrSessionNotFound
	}
	total := sess.AddRemote(conn)
	r.send(sess.HostConn, protocol.Message{
		Type:         protocol.TypeRemoteConnected,
		ClientID:     string(conn),
		TotalRemotes: total,
	})
	log.Info().Str("module", "app.relay").Str("session", string(id)).Str("remote", string(conn)).Int("remotes", total).Msg("remote joined")
	return JoinResult{CurrentSlideIndex: sess.CurrentSlideIndex, TotalSlides: sess.TotalSlides}, nil
}

// RemoteCommand applies a navigation command from a joined remote. Anything
// else — unknown session, or a conn that never joined — is dropped without a
// reply, so unauthorized callers learn nothing about the session.
func (r *Relay) RemoteCommand(conn domain.ConnID, id domain.SessionID, cmd domain.Command, slideIndex *int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.registry.Get(id)
	if !ok || !sess.HasRemote(conn) {
		log.Debug().Str("module", "app.relay").Str("session", string(id)).Str("conn", string(conn)).Msg("dropped unauthorized command")
		return
	}

	idx := sess.CurrentSlideIndex
	if slideIndex != nil {
		idx = *slideIndex
	}
	resolved, interpreted := sess.Apply(cmd, idx)

	out := protocol.Message{
		Type:       protocol.TypeRemoteCommand,
		Command:    string(cmd),
		FromClient: string(conn),
	}
	if interpreted {
		out.SlideIndex = protocol.Int(resolved)
	} else {
		// opaque command, forward the payload untouched
		out.SlideIndex = slideIndex
	}
	r.send(sess.HostConn, out)

	r.broadcastExcept(sess, conn, protocol.Message{
		Type:              protocol.TypeSyncSlide,
		CurrentSlideIndex: protocol.Int(sess.CurrentSlideIndex),
		TotalSlides:       protocol.Int(sess.TotalSlides),
	})
	log.Debug().Str("module", "app.relay").Str("session", string(id)).Str("command", string(cmd)).Int("index", sess.CurrentSlideIndex).Msg("command relayed")
}

// UpdatePresentation overwrites the session position. Host only; updates
// from any other conn are dropped silently.
func (r *Relay) UpdatePresentation(conn domain.ConnID, id domain.SessionID, currentSlideIndex, totalSlides int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.registry.Get(id)
	if !ok || sess.HostConn != conn {
		return
	}
	sess.CurrentSlideIndex = currentSlideIndex
	sess.TotalSlides = totalSlides

	r.broadcastExcept(sess, conn, protocol.Message{
		Type:              protocol.TypeSyncSlide,
		CurrentSlideIndex: protocol.Int(currentSlideIndex),
		TotalSlides:       protocol.Int(totalSlides),
	})
}

// ShareContent pushes the current slide's rendered content to every remote,
// best-effort. Host only.
func (r *Relay) ShareContent(conn domain.ConnID, id domain.SessionID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.registry.Get(id)
	if !ok || sess.HostConn != conn {
		return
	}
	r.broadcastExcept(sess, conn, protocol.Message{
		Type:    protocol.TypeSlideContent,
		Content: content,
	})
}

// Disconnect sweeps the whole registry for conn: a host disconnect ends the
// session and tells every remote, a remote disconnect updates the host's
// count. The sweep runs unconditionally over all sessions; it is safe even
// if conn was somehow registered in more than one.
func (r *Relay) Disconnect(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.peers, conn)

	r.registry.ForEach(func(sess *domain.Session) {
		if sess.HostConn == conn {
			r.broadcastExcept(sess, conn, protocol.Message{Type: protocol.TypePresentationEnded})
			r.registry.Delete(sess.ID)
			log.Info().Str("module", "app.relay").Str("session", string(sess.ID)).Msg("host left, presentation ended")
			return
		}
		if removed, total := sess.RemoveRemote(conn); removed {
			r.send(sess.HostConn, protocol.Message{
				Type:         protocol.TypeRemoteDisconnected,
				ClientID:     string(conn),
				TotalRemotes: total,
			})
			log.Info().Str("module", "app.relay").Str("session", string(sess.ID)).Str("remote", string(conn)).Int("remotes", total).Msg("remote left")
		}
	})
}

func (r *Relay) send(to domain.ConnID, msg protocol.Message) {
	peer, ok := r.peers[to]
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal")
		return
	}
	if err := peer.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("conn", string(to)).Msg("send dropped")
	}
}

func (r *Relay) broadcastExcept(sess *domain.Session, except domain.ConnID, msg protocol.Message) {
	for _, member := range sess.Members() {
		if member == except {
			continue
		}
		r.send(member, msg)
	}
}
