// Package login implements the login/session lifecycle: credential login,
// cookie-based auto-login, OAuth bearer login, redirect-token redemption and
// the logout/secret-refresh maintenance actions. Every strategy funnels into
// the same outcome type; the HTTP layer decides between JSON body, redirect
// and cookie side effects by switching on the outcome kind.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/auth"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/iprange"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/session"
)

// Action selects a login strategy. The set is closed; dispatch happens by
// switching on the tag, never by looking up handler closures.
type Action int

const (
	ActionLogin Action = iota
	ActionAutologin
	ActionOAuth
	ActionRedeem
	ActionRedirect
	ActionStore
	ActionRefreshSecret
	ActionLogout
	ActionChangeIP
	ActionFormLogin
)

var actionNames = map[string]Action{
	"login":         ActionLogin,
	"autologin":     ActionAutologin,
	"oauth":         ActionOAuth,
	"redeem":        ActionRedeem,
	"redirect":      ActionRedirect,
	"store":         ActionStore,
	"refreshSecret": ActionRefreshSecret,
	"logout":        ActionLogout,
	"changeip":      ActionChangeIP,
	"formlogin":     ActionFormLogin,
}

// ParseAction maps the HTTP action parameter to its tag.
func ParseAction(name string) (Action, bool) {
	a, ok := actionNames[name]
	return a, ok
}

// Strategy errors surfaced to the HTTP layer.
var (
	ErrAutologinFailed = errors.New("login: auto-login failed")
	ErrTokenInvalid    = errors.New("login: invalid or expired token")
)

// Orchestrator coordinates the login strategies over the session store and
// the authentication backend. The configuration snapshot is fetched per
// request so a reload takes effect without restarting.
type Orchestrator struct {
	store      session.Store
	auth       *auth.Authenticator
	enablement auth.EnablementChecker
	conf       func() *config.Config
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(store session.Store, authenticator *auth.Authenticator, enablement auth.EnablementChecker, conf func() *config.Config) *Orchestrator {
	return &Orchestrator{
		store:      store,
		auth:       authenticator,
		enablement: enablement,
		conf:       conf,
	}
}

// Store returns the underlying session store.
func (o *Orchestrator) Store() session.Store { return o.store }

// Login runs the credential strategy: authenticate, mint a session, persist
// it. The caller writes cookies and the JSON body from the outcome.
func (o *Orchestrator) Login(ctx context.Context, req *models.LoginRequest) models.LoginOutcome {
	principal, err := o.auth.Authenticate(ctx, req.Login, req.Password)
	if err != nil {
		return models.FailedOutcome(err)
	}
	s := o.newSession(principal, req)
	if err := o.store.Save(ctx, s); err != nil {
		return models.FailedOutcome(fmt.Errorf("login: storing session: %w", err))
	}
	return models.SuccessOutcome(s)
}

// FormLogin is the credential strategy for browser form posts: same session
// establishment, but the response is a redirect into the web UI with the
// session id in the fragment instead of a JSON body.
func (o *Orchestrator) FormLogin(ctx context.Context, req *models.LoginRequest, uiWebPath string) models.LoginOutcome {
	outcome := o.Login(ctx, req)
	if outcome.Kind != models.OutcomeSuccess {
		return outcome
	}
	target := fmt.Sprintf("%s#session=%s", uiWebPath, outcome.Session.ID)
	redirect := models.RedirectOutcome(target)
	redirect.Session = outcome.Session
	return redirect
}

// Autologin restores a session from cookies alone. It scans the request
// cookies once, matching the session and secret cookie names computed from
// the request hash, and requires both a live session and an exactly-matching
// secret. When cookie auto-login is administratively disabled the strategy
// chains into credential login (a policy fallback, not an error) if the
// request carries credentials.
func (o *Orchestrator) Autologin(ctx context.Context, req *models.LoginRequest) models.LoginOutcome {
	cfg := o.conf()
	if !cfg.Session.Autologin {
		if cfg.Session.HTTPAutologinFallback && req.Login != "" {
			return o.Login(ctx, req)
		}
		return models.FailedOutcome(ErrAutologinFailed)
	}

	sessionCookieName := models.SessionCookiePrefix + req.Hash
	secretCookieName := models.SecretCookiePrefix + req.Hash

	var sessionID, secret string
	for _, c := range req.Cookies {
		switch c.Name {
		case sessionCookieName:
			sessionID = c.Value
		case secretCookieName:
			secret = c.Value
		}
	}
	if sessionID == "" || secret == "" {
		return models.FailedOutcome(ErrAutologinFailed)
	}

	s, err := o.store.Lookup(ctx, sessionID)
	if err != nil {
		return models.FailedOutcome(ErrAutologinFailed)
	}
	if !session.ValidateSecret(s, secret) {
		return models.FailedOutcome(ErrAutologinFailed)
	}
	if err := session.ValidateIP(cfg.IPCheck.Enabled, cfg.IPRanges(), s, req.ClientIP, cfg.IPWhitelist()); err != nil {
		// An IP change on a cookie-restored session looks like a hijack:
		// destroy the session instead of merely rejecting the request.
		o.Destroy(ctx, s.ID)
		return models.FailedOutcome(err)
	}
	if session.MaybeRebindIP(cfg.IPCheck.Insecure, s, req.ClientIP) {
		if err := o.store.Save(ctx, s); err != nil {
			return models.FailedOutcome(fmt.Errorf("login: rebinding ip: %w", err))
		}
	}
	return models.SuccessOutcome(s)
}

// Redeem resolves a one-time random token to its session, producing the full
// JSON login result.
func (o *Orchestrator) Redeem(ctx context.Context, req *models.LoginRequest, token string) models.LoginOutcome {
	s, err := o.resolveToken(ctx, req, token)
	if err != nil {
		return models.FailedOutcome(err)
	}
	return models.SuccessOutcome(s)
}

// RedirectToken resolves a one-time random token and answers with an HTTP
// redirect into the web UI. Shares the redemption core with Redeem; only the
// response shape differs.
func (o *Orchestrator) RedirectToken(ctx context.Context, req *models.LoginRequest, token, uiWebPath string) models.LoginOutcome {
	s, err := o.resolveToken(ctx, req, token)
	if err != nil {
		return models.FailedOutcome(err)
	}
	outcome := models.RedirectOutcome(fmt.Sprintf("%s#session=%s", uiWebPath, s.ID))
	outcome.Session = s
	return outcome
}

func (o *Orchestrator) resolveToken(ctx context.Context, req *models.LoginRequest, token string) (*models.Session, error) {
	s, err := o.store.RedeemRandomToken(ctx, token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	cfg := o.conf()
	changed := o.rebindOnRedeem(cfg, s, req.ClientIP)

	if o.enablement != nil {
		// Fail closed without detail: the caller only ever learns the
		// token did not redeem.
		if err := o.enablement.Enabled(ctx, s.ContextID, s.UserID); err != nil {
			return nil, ErrTokenInvalid
		}
	}

	if changed {
		if err := o.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("login: storing rebound session: %w", err)
		}
	}
	return s, nil
}

// rebindOnRedeem applies the redemption IP policy: rebinding happens only in
// insecure mode, and even then the sub-flag can restrict it to sessions
// whose old IP was empty or already whitelisted.
func (o *Orchestrator) rebindOnRedeem(cfg *config.Config, s *models.Session, requestIP string) bool {
	if !cfg.IPCheck.Insecure || requestIP == "" || requestIP == s.LocalIP {
		return false
	}
	if !cfg.IPCheck.RebindOnRedeem {
		if s.LocalIP != "" && !iprange.AnyContains(cfg.IPWhitelist(), s.LocalIP) {
			return false
		}
	}
	s.LocalIP = requestIP
	return true
}

// ChangeIP rebinds a validated session to a caller-supplied address.
func (o *Orchestrator) ChangeIP(ctx context.Context, s *models.Session, newIP string) error {
	if newIP == "" {
		return fmt.Errorf("login: changeip: empty address")
	}
	s.LocalIP = newIP
	return o.store.Save(ctx, s)
}

// Logout removes the session server-side. Cookie stripping is the HTTP
// layer's business.
func (o *Orchestrator) Logout(ctx context.Context, sessionID string) error {
	err := o.store.Remove(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	return err
}

// Destroy tears down a session whose IP check failed: the session is removed
// outright rather than merely rejected.
func (o *Orchestrator) Destroy(ctx context.Context, sessionID string) {
	_ = o.store.Remove(ctx, sessionID)
}

func (o *Orchestrator) newSession(principal *auth.Principal, req *models.LoginRequest) *models.Session {
	now := time.Now()
	authID := req.AuthID
	if authID == "" {
		authID = uuid.NewString()
	}
	s := &models.Session{
		ID:          session.NewID(),
		Secret:      session.NewID(),
		Hash:        req.Hash,
		ContextID:   principal.ContextID,
		UserID:      principal.UserID,
		Login:       principal.Login,
		LocalIP:     req.ClientIP,
		AuthID:      authID,
		Client:      req.ClientID,
		CreateTime:  now,
		LastRequest: now,
	}
	s.SetParameter(models.ParamAlternativeID, uuid.NewString())
	if req.UserAgent != "" {
		s.SetParameter(models.ParamUserAgent, req.UserAgent)
	}
	return s
}
