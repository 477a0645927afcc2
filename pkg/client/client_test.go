package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	router "github.com/slidecast/slidecast/internal/adapters/http"
	"github.com/slidecast/slidecast/internal/adapters/signal"
	"github.com/slidecast/slidecast/internal/app"
	"github.com/slidecast/slidecast/internal/config"
	"github.com/slidecast/slidecast/pkg/client"
)

func newRelayServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Mode:            "release",
		StaticPath:      t.TempDir(),
		ReadLimit:       32768,
		PingPeriod:      50 * time.Second,
		Secret:          "test-secret",
		SessionIDLength: 8,
	}
	registry := app.NewRegistry()
	relay := app.NewRelay(registry, cfg.BaseURL, cfg.SessionIDLength)
	ctl := signal.NewController(relay, cfg)

	srv := httptest.NewServer(router.SetupRouter(context.Background(), cfg, ctl))
	t.Cleanup(srv.Close)
	return srv
}

func newFacade(t *testing.T, serverURL string) *client.Facade {
	t.Helper()
	f := client.New(client.Options{
		ServerURL:     serverURL,
		ProbeTimeout:  time.Second,
		ConnectGrace:  20 * time.Millisecond,
		AckTimeout:    2 * time.Second,
		MaxRetries:    2,
		RetryInterval: 50 * time.Millisecond,
	})
	t.Cleanup(f.Disconnect)
	return f
}

func collect(f *client.Facade) (<-chan client.Event, func()) {
	ch := make(chan client.Event, 32)
	off := f.Subscribe(func(ev client.Event) { ch <- ev })
	return ch, off
}

func waitFor(t *testing.T, ch <-chan client.Event, kind client.EventKind) client.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestCreatePresentation(t *testing.T) {
	srv := newRelayServer(t)
	host := newFacade(t, srv.URL)

	pres, err := host.CreatePresentation(context.Background())
	if err != nil {
		t.Fatalf("CreatePresentation: %v", err)
	}
	if len(pres.SessionID) != 8 {
		t.Errorf("session id %q has length %d, want 8", pres.SessionID, len(pres.SessionID))
	}
	if !strings.HasSuffix(pres.JoinURL, "/remote/"+pres.SessionID) {
		t.Errorf("join url = %q", pres.JoinURL)
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	f := client.New(client.Options{
		ServerURL:        "https://demo.static-pages.example",
		UnsupportedHosts: []string{"static-pages.example"},
	})
	_, err := f.CreatePresentation(context.Background())
	if !errors.Is(err, client.ErrUnsupportedPlatform) {
		t.Fatalf("got %v, want ErrUnsupportedPlatform", err)
	}
	if client.Retryable(err) {
		t.Error("unsupported platform must not be retryable")
	}
}

func TestProbeFailure(t *testing.T) {
	srv := newRelayServer(t)
	url := srv.URL
	srv.Close()

	f := newFacade(t, url)
	_, err := f.CreatePresentation(context.Background())
	if !errors.Is(err, client.ErrServerUnreachable) {
		t.Fatalf("got %v, want ErrServerUnreachable", err)
	}
	if !client.Retryable(err) {
		t.Error("server unreachable should be retryable")
	}
}

// A relay that accepts the socket but never acknowledges anything.
func newSilentServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateAckTimeout(t *testing.T) {
	srv := newSilentServer(t)
	f := client.New(client.Options{
		ServerURL:    srv.URL,
		ConnectGrace: 10 * time.Millisecond,
		AckTimeout:   200 * time.Millisecond,
	})
	t.Cleanup(f.Disconnect)

	_, err := f.CreatePresentation(context.Background())
	if !errors.Is(err, client.ErrAckTimeout) {
		t.Fatalf("got %v, want ErrAckTimeout", err)
	}
}

func TestJoinUnknownSession(t *testing.T) {
	srv := newRelayServer(t)
	remote := newFacade(t, srv.URL)

	_, err := remote.JoinRemote(context.Background(), "nope1234")
	if !errors.Is(err, client.ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestHostRemoteInterplay(t *testing.T) {
	srv := newRelayServer(t)
	ctx := context.Background()

	host := newFacade(t, srv.URL)
	hostEvents, _ := collect(host)

	pres, err := host.CreatePresentation(ctx)
	if err != nil {
		t.Fatalf("CreatePresentation: %v", err)
	}
	if err := host.UpdateSlide(0, 10); err != nil {
		t.Fatalf("UpdateSlide: %v", err)
	}
	// let the relay apply the tick before anyone joins
	time.Sleep(100 * time.Millisecond)

	remote := newFacade(t, srv.URL)
	remoteEvents, _ := collect(remote)

	state, err := remote.JoinRemote(ctx, pres.SessionID)
	if err != nil {
		t.Fatalf("JoinRemote: %v", err)
	}
	if state.CurrentSlideIndex != 0 || state.TotalSlides != 10 {
		t.Errorf("joined at {%d,%d}, want {0,10}", state.CurrentSlideIndex, state.TotalSlides)
	}

	joined := waitFor(t, hostEvents, client.EventRemoteConnected)
	if joined.TotalRemotes != 1 {
		t.Errorf("host sees %d remotes, want 1", joined.TotalRemotes)
	}

	if err := remote.SendCommand("next", nil); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	cmd := waitFor(t, hostEvents, client.EventRemoteCommand)
	if cmd.Command != "next" || cmd.SlideIndex == nil || *cmd.SlideIndex != 1 {
		t.Errorf("host received %+v", cmd)
	}

	if err := host.ShareContent("<p>slide one</p>"); err != nil {
		t.Fatalf("ShareContent: %v", err)
	}
	content := waitFor(t, remoteEvents, client.EventSlideContent)
	if content.Content != "<p>slide one</p>" {
		t.Errorf("content = %q", content.Content)
	}

	host.Disconnect()
	waitFor(t, remoteEvents, client.EventPresentationEnded)
}

func TestSubscribeDisposer(t *testing.T) {
	srv := newRelayServer(t)
	ctx := context.Background()

	host := newFacade(t, srv.URL)
	hostEvents, off := collect(host)

	pres, err := host.CreatePresentation(ctx)
	if err != nil {
		t.Fatalf("CreatePresentation: %v", err)
	}

	r1 := newFacade(t, srv.URL)
	if _, err := r1.JoinRemote(ctx, pres.SessionID); err != nil {
		t.Fatalf("JoinRemote: %v", err)
	}
	waitFor(t, hostEvents, client.EventRemoteConnected)

	off()
	off() // disposing twice is fine

	r2 := newFacade(t, srv.URL)
	if _, err := r2.JoinRemote(ctx, pres.SessionID); err != nil {
		t.Fatalf("JoinRemote: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	select {
	case ev := <-hostEvents:
		t.Errorf("unsubscribed callback still received %s", ev.Kind)
	default:
	}
}

func TestUpdateSlideWithoutSession(t *testing.T) {
	f := client.New(client.Options{ServerURL: "http://127.0.0.1:1"})
	// a best-effort tick with no active session is not an error
	if err := f.UpdateSlide(3, 10); err != nil {
		t.Errorf("UpdateSlide without session returned %v", err)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	srv := newRelayServer(t)
	host := newFacade(t, srv.URL)

	if _, err := host.CreatePresentation(context.Background()); err != nil {
		t.Fatalf("CreatePresentation: %v", err)
	}
	host.Disconnect()
	host.Disconnect()
}
