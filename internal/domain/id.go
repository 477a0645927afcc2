package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultSessionIDLength gives ~48 bits of entropy — collision-resistant
// enough for short-lived sessions while staying readable in a share URL.
const DefaultSessionIDLength = 8

// NewSessionID generates a random URL-safe session token of n characters.
func NewSessionID(n int) (SessionID, error) {
	if n <= 0 {
		n = DefaultSessionIDLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("domain: failed to generate session id: %w", err)
	}
	return SessionID(base64.RawURLEncoding.EncodeToString(b)[:n]), nil
}
