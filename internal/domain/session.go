// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

type (
	// ConnID identifies one transport connection (one browser tab or device).
	ConnID string
	// SessionID is the short shareable token identifying a presentation.
	SessionID string
)

// Session is one live presentation: one host, zero or more remotes.
type Session struct {
	ID                SessionID
	HostConn          ConnID
	CurrentSlideIndex int
	TotalSlides       int
	Remotes           []ConnID
	CreatedAt         time.Time
}

// NewSession sets the host at creation; the host is never reassigned.
func NewSession(id SessionID, host ConnID) *Session {
	return &Session{
		ID:        id,
		HostConn:  host,
		Remotes:   make([]ConnID, 0, 4),
		CreatedAt: time.Now(),
	}
}

// AddRemote appends conn to the remote set, keeping it duplicate-free and
// ordered by join time. Returns the remote count after the add.
func (s *Session) AddRemote(conn ConnID) int {
	for _, r := range s.Remotes {
		if r == conn {
			return len(s.Remotes)
		}
	}
	s.Remotes = append(s.Remotes, conn)
	return len(s.Remotes)
}

// RemoveRemote deletes conn from the remote set. Reports whether it was a
// member and the remote count after the removal.
func (s *Session) RemoveRemote(conn ConnID) (bool, int) {
	for i, r := range s.Remotes {
		if r == conn {
			s.Remotes = append(s.Remotes[:i], s.Remotes[i+1:]...)
			return true, len(s.Remotes)
		}
	}
	return false, len(s.Remotes)
}

func (s *Session) HasRemote(conn ConnID) bool {
	for _, r := range s.Remotes {
		if r == conn {
			return true
		}
	}
	return false
}

// Members returns the host followed by every remote, in join order.
func (s *Session) Members() []ConnID {
	out := make([]ConnID, 0, len(s.Remotes)+1)
	out = append(out, s.HostConn)
	out = append(out, s.Remotes...)
	return out
}
