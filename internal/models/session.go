package models

import "time"

// Session represents an authenticated principal bound to a context and user.
// Identity fields (ContextID, UserID) never change after creation; LocalIP,
// Hash, Client and the parameter bag may be updated in place by the owning
// request thread.
type Session struct {
	ID          string    `json:"session_id"`
	Secret      string    `json:"-"`
	Hash        string    `json:"-"`
	ContextID   int       `json:"context_id"`
	UserID      int       `json:"user_id"`
	Login       string    `json:"login"`
	LocalIP     string    `json:"local_ip"`
	AuthID      string    `json:"auth_id"`
	Client      string    `json:"client"`
	CreateTime  time.Time `json:"create_time"`
	LastRequest time.Time `json:"last_request"`

	// Parameters is a string-keyed bag for per-session extras such as the
	// alternative (public session) id, the user-agent echo and capability
	// strings. Nil until first use.
	Parameters map[string]string `json:"-"`
}

// Session parameter keys.
const (
	ParamAlternativeID = "alternative_id"
	ParamUserAgent     = "user_agent"
	ParamCapabilities  = "capabilities"
)

// Cookie name prefixes. Cookie names are the prefix concatenated with the
// session hash, and auto-login scans request cookies by these prefixes, so
// the exact strings are part of the wire contract.
const (
	SessionCookiePrefix       = "open-xchange-session-"
	SecretCookiePrefix        = "open-xchange-secret-"
	PublicSessionCookiePrefix = "open-xchange-public-session-"

	// ShardCookieName is the generic web-session cookie stripped on logout.
	ShardCookieName = "JSESSIONID"
)

// GetParameter returns the named session parameter, if set.
func (s *Session) GetParameter(key string) (string, bool) {
	if s.Parameters == nil {
		return "", false
	}
	v, ok := s.Parameters[key]
	return v, ok
}

// SetParameter sets a session parameter, allocating the bag on first use.
func (s *Session) SetParameter(key, value string) {
	if s.Parameters == nil {
		s.Parameters = make(map[string]string)
	}
	s.Parameters[key] = value
}

// AlternativeID returns the public session identifier, if one was assigned.
func (s *Session) AlternativeID() string {
	v, _ := s.GetParameter(ParamAlternativeID)
	return v
}
