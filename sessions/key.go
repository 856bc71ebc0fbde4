// Package sessions groups a flat list of tracked events into per-session
// clusters for the live event stream.
package sessions

import (
	"fmt"
	"strings"

	"eventstream/api/models"
)

const (
	syntheticPrefix = "no-session-"

	realTokenPrefix      = "session:"
	syntheticTokenPrefix = "visitor:"
)

// SessionKey identifies a session group. It is either a real session id sent
// by the client or a synthetic key derived from the visitor id of an event
// that carried no session id. The two variants never compare equal, even when
// their display strings match.
type SessionKey struct {
	id        string
	synthetic bool
}

// RealKey returns the key for a client-supplied session id.
func RealKey(sessionID string) SessionKey {
	return SessionKey{id: sessionID}
}

// SyntheticKey returns the key used for events of visitorID that have no
// session id.
func SyntheticKey(visitorID string) SessionKey {
	return SessionKey{id: visitorID, synthetic: true}
}

// KeyFor returns the session key an event belongs to. An empty session id is
// treated the same as a missing one.
func KeyFor(ev models.TrackedEvent) SessionKey {
	if ev.SessionID != "" {
		return RealKey(ev.SessionID)
	}
	return SyntheticKey(ev.VisitorID)
}

func (k SessionKey) IsSynthetic() bool { return k.synthetic }

// String renders the key the way the dashboard displays it.
func (k SessionKey) String() string {
	if k.synthetic {
		return syntheticPrefix + k.id
	}
	return k.id
}

// Token is the unambiguous wire form of the key, e.g. "session:abc" or
// "visitor:v1".
func (k SessionKey) Token() string {
	if k.synthetic {
		return syntheticTokenPrefix + k.id
	}
	return realTokenPrefix + k.id
}

func (k SessionKey) MarshalText() ([]byte, error) {
	return []byte(k.Token()), nil
}

func (k *SessionKey) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses a key token. Tokens without a known prefix are taken as a
// bare real session id.
func ParseKey(token string) (SessionKey, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SessionKey{}, fmt.Errorf("empty session key")
	}
	switch {
	case strings.HasPrefix(token, syntheticTokenPrefix):
		return SyntheticKey(strings.TrimPrefix(token, syntheticTokenPrefix)), nil
	case strings.HasPrefix(token, realTokenPrefix):
		id := strings.TrimPrefix(token, realTokenPrefix)
		if id == "" {
			return SessionKey{}, fmt.Errorf("session key %q has no id", token)
		}
		return RealKey(id), nil
	default:
		return RealKey(token), nil
	}
}
