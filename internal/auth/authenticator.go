// Package auth provides the credential-verification backends consumed by the
// login flows. Providers are tried in priority order; the first one that
// recognizes the login decides the outcome.
package auth

import (
	"context"
	"errors"
	"sort"
)

// Authentication errors.
var (
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrUserDisabled       = errors.New("auth: user is disabled")
	ErrContextDisabled    = errors.New("auth: context is disabled")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAuthBackendFailed  = errors.New("auth: backend failure")
)

// Principal is the resolved identity of a successfully authenticated user.
type Principal struct {
	ContextID int
	UserID    int
	Login     string
	Locale    string
}

// Provider is a single authentication backend.
type Provider interface {
	// Authenticate verifies the credentials. ErrUserNotFound hands over to
	// the next provider in the chain; any other error is terminal.
	Authenticate(ctx context.Context, login, password string) (*Principal, error)
	Name() string
	Priority() int
}

// EnablementChecker re-checks that a principal's context and user are still
// enabled. Used by flows that resolve a session without credentials.
type EnablementChecker interface {
	Enabled(ctx context.Context, contextID, userID int) error
}

// Authenticator chains providers in priority order.
type Authenticator struct {
	providers []Provider
}

// NewAuthenticator creates an authenticator over the given providers.
func NewAuthenticator(providers ...Provider) *Authenticator {
	a := &Authenticator{}
	for _, p := range providers {
		a.AddProvider(p)
	}
	return a
}

// AddProvider registers an additional provider, keeping priority order.
func (a *Authenticator) AddProvider(p Provider) {
	a.providers = append(a.providers, p)
	sort.SliceStable(a.providers, func(i, j int) bool {
		return a.providers[i].Priority() < a.providers[j].Priority()
	})
}

// Authenticate tries each provider until one recognizes the login.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (*Principal, error) {
	if len(a.providers) == 0 {
		return nil, ErrAuthBackendFailed
	}
	for _, p := range a.providers {
		principal, err := p.Authenticate(ctx, login, password)
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return principal, nil
	}
	return nil, ErrInvalidCredentials
}
