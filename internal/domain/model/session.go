package model

import "time"

// Session pairs the backend access token with the identity it authorizes.
// Token and User are always set or cleared together.
type Session struct {
	Token     string    `json:"token"`
	User      *User     `json:"loggedInUser"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Empty reports whether s carries no usable credentials.
func (s Session) Empty() bool {
	return s.Token == "" || s.User == nil
}

// Valid reports whether s is set and not expired at now.
func (s Session) Valid(now time.Time) bool {
	if s.Empty() {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

type SessionEventKind string

const (
	SessionSaved   SessionEventKind = "saved"
	SessionCleared SessionEventKind = "cleared"
)

// SessionEvent notifies subscribers that a browser's Session changed.
type SessionEvent struct {
	Kind    SessionEventKind `json:"kind"`
	Session Session          `json:"-"`
	User    *User            `json:"user,omitempty"`
	At      time.Time        `json:"at"`
}

func NewSessionEvent(kind SessionEventKind, s Session, at time.Time) SessionEvent {
	return SessionEvent{Kind: kind, Session: s, User: s.User, At: at}
}
