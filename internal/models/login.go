package models

import "net/http"

// LoginRequest is an immutable per-request value assembled from HTTP
// parameters and headers before a login strategy runs.
type LoginRequest struct {
	Login         string
	Password      string
	ClientID      string
	ClientVersion string
	AuthID        string
	ClientIP      string
	UserAgent     string
	Headers       http.Header
	Cookies       []*http.Cookie
	Hash          string
	Secure        bool
	ServerName    string
}

// LoginOutcomeKind tags the result of a login strategy.
type LoginOutcomeKind int

const (
	OutcomeFailed LoginOutcomeKind = iota
	OutcomeSuccess
	OutcomeRedirect
)

// LoginOutcome is the sum-typed result of a login strategy: exactly one of
// Session (success), RedirectTarget (redirect) or Err (failure) is meaningful,
// selected by Kind.
type LoginOutcome struct {
	Kind           LoginOutcomeKind
	Session        *Session
	RedirectTarget string
	Err            error
}

// SuccessOutcome wraps an established session.
func SuccessOutcome(s *Session) LoginOutcome {
	return LoginOutcome{Kind: OutcomeSuccess, Session: s}
}

// RedirectOutcome signals that the HTTP layer should answer with a redirect
// instead of a JSON body.
func RedirectOutcome(target string) LoginOutcome {
	return LoginOutcome{Kind: OutcomeRedirect, RedirectTarget: target}
}

// FailedOutcome wraps a terminal login failure.
func FailedOutcome(err error) LoginOutcome {
	return LoginOutcome{Kind: OutcomeFailed, Err: err}
}
