// Package client is the Go counterpart of the relay protocol: it hides the
// WebSocket lifecycle behind a small facade the presentation UI drives. One
// Facade owns one transport connection and is safe for concurrent use.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"github.com/slidecast/slidecast/internal/protocol"
)

const writeWait = 5 * time.Second

// Options configures a Facade. Zero values fall back to sane defaults.
type Options struct {
	// ServerURL is the relay's HTTP base, e.g. "https://relay.example.com".
	ServerURL string

	// ProbeTimeout bounds the liveness probe before the handshake.
	ProbeTimeout time.Duration
	// ConnectGrace is the settle delay between opening the transport and the
	// first protocol message.
	ConnectGrace time.Duration
	// AckTimeout bounds how long a request waits for its reply.
	AckTimeout time.Duration

	// MaxRetries and RetryInterval shape the reconnect policy: a bounded
	// number of attempts at a fixed interval, then give up.
	MaxRetries    int
	RetryInterval time.Duration

	// UnsupportedHosts lists serving-domain suffixes that cannot host the
	// transport's upgrade mechanism; connecting there is refused up front.
	UnsupportedHosts []string

	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// Presentation is the result of a successful create: the session id and the
// URL a remote device visits to join.
type Presentation struct {
	SessionID string
	JoinURL   string
}

// SlideState is the position a joining remote should render immediately.
type SlideState struct {
	CurrentSlideIndex int
	TotalSlides       int
}

type Facade struct {
	opts   Options
	httpc  *http.Client
	dialer *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	closed    bool
	sessionID string
	isHost    bool

	pendingType string
	pending     chan protocol.Message

	subs    map[int]func(Event)
	nextSub int

	writeMu sync.Mutex
}

func New(opts Options) *Facade {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 3 * time.Second
	}
	if opts.ConnectGrace <= 0 {
		opts.ConnectGrace = 300 * time.Millisecond
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = 5 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 2 * time.Second
	}
	f := &Facade{
		opts:   opts,
		httpc:  opts.HTTPClient,
		dialer: opts.Dialer,
		subs:   make(map[int]func(Event)),
	}
	if f.httpc == nil {
		f.httpc = &http.Client{}
	}
	if f.dialer == nil {
		f.dialer = websocket.DefaultDialer
	}
	return f
}

// CreatePresentation registers a new session with this client as host.
// Fails fast on unsupported platforms, probes the relay's health endpoint
// before touching the transport, and bounds the handshake with AckTimeout.
func (f *Facade) CreatePresentation(ctx context.Context) (*Presentation, error) {
	if err := f.checkPlatform(); err != nil {
		return nil, err
	}
	if err := f.Probe(ctx); err != nil {
		return nil, err
	}
	if err := f.ensureConnected(ctx); err != nil {
		return nil, err
	}
	reply, err := f.request(ctx, protocol.Message{Type: protocol.TypeCreatePresentation}, protocol.TypePresentationCreated)
	if err != nil {
		return nil, err
	}
	if !reply.Ok() {
		return nil, fmt.Errorf("create presentation: %s", reply.Error)
	}

	f.mu.Lock()
	f.sessionID = reply.SessionID
	f.isHost = true
	f.mu.Unlock()

	return &Presentation{SessionID: reply.SessionID, JoinURL: reply.QRURL}, nil
}

// JoinRemote attaches this client as a remote control of an existing
// session and returns the position to render.
func (f *Facade) JoinRemote(ctx context.Context, sessionID string) (*SlideState, error) {
	if err := f.ensureConnected(ctx); err != nil {
		return nil, err
	}
	reply, err := f.request(ctx, protocol.Message{
		Type:      protocol.TypeJoinRemote,
		SessionID: sessionID,
	}, protocol.TypeRemoteJoined)
	if err != nil {
		return nil, err
	}
	if !reply.Ok() {
		return nil, ErrSessionNotFound
	}

	f.mu.Lock()
	f.sessionID = sessionID
	f.isHost = false
	f.mu.Unlock()

	state := &SlideState{}
	if reply.CurrentSlideIndex != nil {
		state.CurrentSlideIndex = *reply.CurrentSlideIndex
	}
	if reply.TotalSlides != nil {
		state.TotalSlides = *reply.TotalSlides
	}
	return state, nil
}

// UpdateSlide pushes the host's position. Having no active session is not an
// error here — the UI calls this on every navigation as a best-effort tick.
func (f *Facade) UpdateSlide(currentSlideIndex, totalSlides int) error {
	f.mu.Lock()
	sid, host, conn := f.sessionID, f.isHost, f.conn
	f.mu.Unlock()
	if sid == "" || !host || conn == nil {
		return nil
	}
	return f.writeJSON(protocol.Message{
		Type:              protocol.TypeUpdatePresentation,
		SessionID:         sid,
		CurrentSlideIndex: protocol.Int(currentSlideIndex),
		TotalSlides:       protocol.Int(totalSlides),
	})
}

// ShareContent broadcasts the current slide's rendered content to remotes,
// best-effort, no acknowledgement.
func (f *Facade) ShareContent(content string) error {
	f.mu.Lock()
	sid, host, conn := f.sessionID, f.isHost, f.conn
	f.mu.Unlock()
	if sid == "" || !host || conn == nil {
		return nil
	}
	return f.writeJSON(protocol.Message{
		Type:      protocol.TypeShareContent,
		SessionID: sid,
		Content:   content,
	})
}

// SendCommand fires a navigation command at the session this client joined.
// Fire-and-forget: the relay never replies, the resulting position arrives
// as a sync-slide event.
func (f *Facade) SendCommand(command string, slideIndex *int) error {
	f.mu.Lock()
	sid, conn := f.sessionID, f.conn
	f.mu.Unlock()
	if conn == nil {
		return ErrDisconnected
	}
	if sid == "" {
		return nil
	}
	return f.writeJSON(protocol.Message{
		Type:       protocol.TypeRemoteCommand,
		SessionID:  sid,
		Command:    command,
		SlideIndex: slideIndex,
	})
}

// Subscribe registers fn for every event and returns its disposer. Each
// subscriber owns its cleanup; re-subscribing never clobbers anyone else.
func (f *Facade) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Disconnect tears the transport down and clears session state. Idempotent;
// the facade may connect again afterwards.
func (f *Facade) Disconnect() {
	f.mu.Lock()
	if f.closed && f.conn == nil {
		f.mu.Unlock()
		return
	}
	f.closed = true
	conn := f.conn
	f.conn = nil
	f.sessionID = ""
	f.isHost = false
	f.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = conn.Close()
	}
}

// Probe hits the relay's liveness endpoint with a short timeout — a fast
// offline detector before attempting the real-time handshake.
func (f *Facade) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, f.opts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(f.opts.ServerURL, "/")+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	resp, err := f.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrServerUnreachable, resp.StatusCode)
	}
	return nil
}

func (f *Facade) checkPlatform() error {
	u, err := url.Parse(f.opts.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: bad server url %q", ErrUnsupportedPlatform, f.opts.ServerURL)
	}
	host := u.Hostname()
	for _, suffix := range f.opts.UnsupportedHosts {
		if strings.HasSuffix(host, suffix) {
			return fmt.Errorf("%w: %s cannot upgrade connections, deploy the relay elsewhere", ErrUnsupportedPlatform, host)
		}
	}
	return nil
}

func (f *Facade) wsURL() (string, error) {
	u, err := url.Parse(f.opts.ServerURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws"
	return u.String(), nil
}

// ensureConnected opens the transport if needed, then waits a brief grace
// period before the caller attempts the protocol handshake.
func (f *Facade) ensureConnected(ctx context.Context) error {
	f.mu.Lock()
	if f.conn != nil {
		f.mu.Unlock()
		return nil
	}
	f.closed = false
	f.mu.Unlock()

	wsURL, err := f.wsURL()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}
	conn, resp, err := f.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	go f.readLoop(conn)

	select {
	case <-time.After(f.opts.ConnectGrace):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// request sends msg and waits for the reply of replyType. One request may be
// in flight at a time; the protocol's create/join calls are one-shot.
func (f *Facade) request(ctx context.Context, msg protocol.Message, replyType string) (protocol.Message, error) {
	f.mu.Lock()
	if f.conn == nil {
		f.mu.Unlock()
		return protocol.Message{}, ErrDisconnected
	}
	if f.pending != nil {
		f.mu.Unlock()
		return protocol.Message{}, ErrRequestPending
	}
	ch := make(chan protocol.Message, 1)
	f.pending = ch
	f.pendingType = replyType
	f.mu.Unlock()

	if err := f.writeJSON(msg); err != nil {
		f.clearPending(ch)
		return protocol.Message{}, err
	}

	timer := time.NewTimer(f.opts.AckTimeout)
	defer timer.Stop()
	select {
	case reply := <-ch:
		return reply, nil
	case <-timer.C:
		f.clearPending(ch)
		return protocol.Message{}, ErrAckTimeout
	case <-ctx.Done():
		f.clearPending(ch)
		return protocol.Message{}, ctx.Err()
	}
}

func (f *Facade) clearPending(ch chan protocol.Message) {
	f.mu.Lock()
	if f.pending == ch {
		f.pending = nil
		f.pendingType = ""
	}
	f.mu.Unlock()
}

func (f *Facade) writeJSON(msg protocol.Message) error {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn == nil {
		return ErrDisconnected
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (f *Facade) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			f.onReadError(conn, err)
			return
		}
		var msg protocol.Message
		if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil {
			continue
		}
		f.dispatch(msg)
	}
}

func (f *Facade) dispatch(msg protocol.Message) {
	f.mu.Lock()
	if f.pending != nil && msg.Type == f.pendingType {
		ch := f.pending
		f.pending = nil
		f.pendingType = ""
		f.mu.Unlock()
		ch <- msg
		return
	}
	f.mu.Unlock()

	switch msg.Type {
	case protocol.TypeRemoteCommand:
		f.emit(Event{
			Kind:       EventRemoteCommand,
			Command:    msg.Command,
			SlideIndex: msg.SlideIndex,
			FromClient: msg.FromClient,
		})
	case protocol.TypeSyncSlide:
		ev := Event{Kind: EventSyncSlide}
		if msg.CurrentSlideIndex != nil {
			ev.CurrentSlideIndex = *msg.CurrentSlideIndex
		}
		if msg.TotalSlides != nil {
			ev.TotalSlides = *msg.TotalSlides
		}
		f.emit(ev)
	case protocol.TypeRemoteConnected:
		f.emit(Event{Kind: EventRemoteConnected, ClientID: msg.ClientID, TotalRemotes: msg.TotalRemotes})
	case protocol.TypeRemoteDisconnected:
		f.emit(Event{Kind: EventRemoteDisconnected, ClientID: msg.ClientID, TotalRemotes: msg.TotalRemotes})
	case protocol.TypePresentationEnded:
		f.mu.Lock()
		f.sessionID = ""
		f.mu.Unlock()
		f.emit(Event{Kind: EventPresentationEnded})
	case protocol.TypeSlideContent:
		f.emit(Event{Kind: EventSlideContent, Content: msg.Content})
	}
}

// onReadError runs the bounded reconnect policy, unless the facade itself
// initiated the close.
func (f *Facade) onReadError(conn *websocket.Conn, err error) {
	f.mu.Lock()
	if f.closed || f.conn != conn {
		// deliberate teardown or an already-replaced conn
		f.mu.Unlock()
		return
	}
	f.conn = nil
	f.mu.Unlock()
	_ = conn.Close()

	f.emit(Event{Kind: EventDisconnected, Err: err})
	f.reconnect()
}

func (f *Facade) reconnect() {
	wsURL, err := f.wsURL()
	if err != nil {
		f.emit(Event{Kind: EventConnectionFailed, Err: err})
		return
	}

	b := &backoff.Backoff{
		Min:    f.opts.RetryInterval,
		Max:    f.opts.RetryInterval,
		Factor: 1,
	}
	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		time.Sleep(b.Duration())

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()

		conn, resp, err := f.dialer.Dial(wsURL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			continue
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			conn.Close()
			return
		}
		f.conn = conn
		f.mu.Unlock()

		go f.readLoop(conn)
		f.emit(Event{Kind: EventReconnected})
		f.resync()
		return
	}
	f.emit(Event{Kind: EventConnectionFailed, Err: ErrDisconnected})
}

// resync re-issues join-remote after a reconnect; broadcasts sent while the
// transport was down are gone, the join reply carries the current position.
func (f *Facade) resync() {
	f.mu.Lock()
	sid, host := f.sessionID, f.isHost
	f.mu.Unlock()
	if sid == "" || host {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.opts.AckTimeout)
	defer cancel()
	reply, err := f.request(ctx, protocol.Message{
		Type:      protocol.TypeJoinRemote,
		SessionID: sid,
	}, protocol.TypeRemoteJoined)
	if err != nil || !reply.Ok() {
		return
	}
	ev := Event{Kind: EventSyncSlide}
	if reply.CurrentSlideIndex != nil {
		ev.CurrentSlideIndex = *reply.CurrentSlideIndex
	}
	if reply.TotalSlides != nil {
		ev.TotalSlides = *reply.TotalSlides
	}
	f.emit(ev)
}

func (f *Facade) emit(ev Event) {
	f.mu.Lock()
	fns := make([]func(Event), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
