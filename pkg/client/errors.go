package client

import "errors"

var (
	// ErrUnsupportedPlatform means the deployment target cannot host the
	// realtime transport at all. Not retryable; redeploy elsewhere.
	ErrUnsupportedPlatform = errors.New("platform cannot host the realtime transport")

	// ErrServerUnreachable means the liveness probe failed or timed out.
	// Retryable.
	ErrServerUnreachable = errors.New("relay server unreachable")

	// ErrSessionNotFound means the session id matched nothing on the relay:
	// expired, mistyped, or the host already ended it.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAckTimeout means the relay accepted the connection but never
	// answered the request.
	ErrAckTimeout = errors.New("no acknowledgement from relay")

	// ErrDisconnected means there is no live transport to send on.
	ErrDisconnected = errors.New("not connected to relay")

	// ErrRequestPending means a request is already awaiting its reply; the
	// facade carries one outstanding request at a time.
	ErrRequestPending = errors.New("another request is in flight")
)

// Retryable reports whether the caller may reasonably try the same call
// again without changing anything.
func Retryable(err error) bool {
	return errors.Is(err, ErrServerUnreachable) || errors.Is(err, ErrAckTimeout)
}
