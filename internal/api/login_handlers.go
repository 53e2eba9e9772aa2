package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/apierrors"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/auth"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/login"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/session"
)

// LoginHandler serves /ajax/login. Every action arrives on the same route
// and is dispatched by the "action" parameter.
type LoginHandler struct {
	orch *login.Orchestrator
	conf func() *config.Config
}

func NewLoginHandler(orch *login.Orchestrator, conf func() *config.Config) *LoginHandler {
	return &LoginHandler{orch: orch, conf: conf}
}

// Handle dispatches a single login-family request.
func (h *LoginHandler) Handle(c *gin.Context) {
	cfg := h.conf()
	action, ok := login.ParseAction(param(c, "action"))
	if !ok {
		apierrors.ErrorWithMessage(c, apierrors.CodeUnknownAction, "Unknown action: "+param(c, "action"))
		return
	}

	req := buildLoginRequest(c, cfg)
	m := globalLoginMetrics()

	switch action {
	case login.ActionLogin:
		outcome := h.orch.Login(c.Request.Context(), req)
		m.observe("login", outcome)
		h.writeOutcome(c, cfg, req, outcome, param(c, "callback") != "")
	case login.ActionFormLogin:
		outcome := h.orch.FormLogin(c.Request.Context(), req, uiWebPath(c, cfg))
		m.observe("formlogin", outcome)
		h.writeOutcome(c, cfg, req, outcome, false)
	case login.ActionAutologin:
		outcome := h.orch.Autologin(c.Request.Context(), req)
		m.observe("autologin", outcome)
		h.writeAutologinOutcome(c, cfg, req, outcome)
	case login.ActionOAuth:
		token := param(c, "token")
		if token == "" {
			apierrors.Error(c, apierrors.CodeMissingParameter)
			return
		}
		outcome := h.orch.OAuth(c.Request.Context(), req, token)
		m.observe("oauth", outcome)
		h.writeOutcome(c, cfg, req, outcome, false)
	case login.ActionRedeem:
		token := param(c, "token")
		if token == "" {
			apierrors.Error(c, apierrors.CodeMissingParameter)
			return
		}
		outcome := h.orch.Redeem(c.Request.Context(), req, token)
		m.observe("redeem", outcome)
		h.writeOutcome(c, cfg, req, outcome, false)
	case login.ActionRedirect:
		token := param(c, "token")
		if token == "" {
			apierrors.Error(c, apierrors.CodeMissingParameter)
			return
		}
		outcome := h.orch.RedirectToken(c.Request.Context(), req, token, uiWebPath(c, cfg))
		m.observe("redirect", outcome)
		h.writeOutcome(c, cfg, req, outcome, false)
	case login.ActionStore:
		h.handleStore(c, cfg, req)
	case login.ActionRefreshSecret:
		h.handleRefreshSecret(c, cfg, req)
	case login.ActionLogout:
		h.handleLogout(c, cfg)
	case login.ActionChangeIP:
		h.handleChangeIP(c, cfg)
	default:
		apierrors.Error(c, apierrors.CodeUnknownAction)
	}
}

// writeOutcome is the shared response tail for session-establishing actions.
func (h *LoginHandler) writeOutcome(c *gin.Context, cfg *config.Config, req *models.LoginRequest, outcome models.LoginOutcome, callback bool) {
	switch outcome.Kind {
	case models.OutcomeSuccess:
		w := login.NewCookieWriter(cfg, req.Secure, req.ServerName)
		w.WriteAll(c.Writer, outcome.Session)
		if cfg.Session.Autologin {
			w.WriteSession(c.Writer, outcome.Session)
		}
		body := loginResponseBody(cfg, outcome.Session)
		if callback {
			writeCallback(c, body)
			return
		}
		writeJSON(c, http.StatusOK, body)
	case models.OutcomeRedirect:
		// Form and token redirects still carry the cookies so the UI can
		// pick the session up after the hop.
		if outcome.Session != nil {
			w := login.NewCookieWriter(cfg, req.Secure, req.ServerName)
			w.WriteAll(c.Writer, outcome.Session)
			if cfg.Session.Autologin {
				w.WriteSession(c.Writer, outcome.Session)
			}
		}
		c.Redirect(http.StatusFound, outcome.RedirectTarget)
	default:
		if callback {
			writeCallback(c, gin.H{"error": apierrors.New(classifyLoginError(outcome.Err))})
			return
		}
		h.writeLoginError(c, outcome.Err)
	}
}

// writeAutologinOutcome adds the destructive tails. An IP mismatch has
// already torn the session down server-side, so every cookie is stripped. A
// plain restore failure, whether the cookies were missing, the session gone,
// or the secret stale, strips the session cookie families too: they could
// not restore anything and would only make the next attempt fail the same
// way.
func (h *LoginHandler) writeAutologinOutcome(c *gin.Context, cfg *config.Config, req *models.LoginRequest, outcome models.LoginOutcome) {
	if outcome.Kind == models.OutcomeFailed {
		var mismatch *session.IPMismatchError
		switch {
		case errors.As(outcome.Err, &mismatch):
			login.PurgeSessionCookies(c.Writer, c.Request)
			login.PurgeShardCookie(c.Writer, c.Request)
			apierrors.Error(c, apierrors.CodeSessionIPMismatch)
			return
		case errors.Is(outcome.Err, login.ErrAutologinFailed):
			login.PurgeSessionCookies(c.Writer, c.Request)
		}
	}
	h.writeOutcome(c, cfg, req, outcome, false)
}

// handleStore rewrites the cookies of a live session with the persistent
// lifetime, so the browser keeps them across restarts.
func (h *LoginHandler) handleStore(c *gin.Context, cfg *config.Config, req *models.LoginRequest) {
	s, ok := resolveSession(c, h.orch.Store(), h.orch, cfg)
	if !ok {
		return
	}
	w := login.NewCookieWriter(cfg, req.Secure, req.ServerName)
	w.WriteAll(c.Writer, s)
	w.WriteSession(c.Writer, s)
	writeJSON(c, http.StatusOK, gin.H{"data": "ok"})
}

// handleRefreshSecret mints a new secret for a live session and rewrites the
// secret cookie, invalidating any copy an eavesdropper may hold.
func (h *LoginHandler) handleRefreshSecret(c *gin.Context, cfg *config.Config, req *models.LoginRequest) {
	s, ok := resolveSession(c, h.orch.Store(), h.orch, cfg)
	if !ok {
		return
	}
	s.Secret = session.NewID()
	if err := h.orch.Store().Save(c.Request.Context(), s); err != nil {
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	}
	w := login.NewCookieWriter(cfg, req.Secure, req.ServerName)
	w.WriteAll(c.Writer, s)
	writeJSON(c, http.StatusOK, gin.H{"data": "ok"})
}

// handleLogout removes the session and strips every cookie this server set.
// The session id alone does not authorize the removal: ids leak into URLs
// through redirect fragments, so the caller must also present the secret
// cookie and pass the IP check. A session that is already gone is not an
// error, logout is idempotent.
func (h *LoginHandler) handleLogout(c *gin.Context, cfg *config.Config) {
	sessionID := param(c, "session")
	if sessionID == "" {
		apierrors.Error(c, apierrors.CodeMissingParameter)
		return
	}
	s, err := h.orch.Store().Lookup(c.Request.Context(), sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			apierrors.Error(c, apierrors.CodeServiceUnavailable)
			return
		}
		login.PurgeSessionCookies(c.Writer, c.Request)
		login.PurgeShardCookie(c.Writer, c.Request)
		c.Status(http.StatusOK)
		return
	}
	if !guardSession(c, s, h.orch, cfg) {
		return
	}
	if err := h.orch.Logout(c.Request.Context(), sessionID); err != nil {
		log.Printf("api: logout of session %s: %v", sessionID, err)
	}
	login.PurgeSessionCookies(c.Writer, c.Request)
	login.PurgeShardCookie(c.Writer, c.Request)
	c.Status(http.StatusOK)
}

// handleChangeIP rebinds a validated session to the address the client
// announces. The session must pass the regular checks first.
func (h *LoginHandler) handleChangeIP(c *gin.Context, cfg *config.Config) {
	s, ok := resolveSession(c, h.orch.Store(), h.orch, cfg)
	if !ok {
		return
	}
	newIP := param(c, "clientIP")
	if newIP == "" {
		apierrors.Error(c, apierrors.CodeMissingParameter)
		return
	}
	if err := h.orch.ChangeIP(c.Request.Context(), s, newIP); err != nil {
		apierrors.Error(c, apierrors.CodeServiceUnavailable)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"data": "1"})
}

func (h *LoginHandler) writeLoginError(c *gin.Context, err error) {
	apierrors.Error(c, classifyLoginError(err))
}

func classifyLoginError(err error) string {
	switch {
	case errors.Is(err, auth.ErrUserDisabled), errors.Is(err, auth.ErrContextDisabled):
		return apierrors.CodeAccountDisabled
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
		return apierrors.CodeLoginFailed
	case errors.Is(err, login.ErrAutologinFailed):
		return apierrors.CodeAutologinFailed
	case errors.Is(err, login.ErrTokenInvalid):
		return apierrors.CodeTokenInvalid
	case errors.Is(err, session.ErrNotFound):
		return apierrors.CodeSessionExpired
	default:
		var mismatch *session.IPMismatchError
		if errors.As(err, &mismatch) {
			return apierrors.CodeSessionIPMismatch
		}
		log.Printf("api: login error: %v", err)
		return apierrors.CodeInternalError
	}
}

// loginResponseBody is the JSON contract of a successful login. The secret
// never appears here; it travels only in its cookie.
func loginResponseBody(cfg *config.Config, s *models.Session) gin.H {
	body := gin.H{
		"session":    s.ID,
		"user":       s.Login,
		"user_id":    s.UserID,
		"context_id": s.ContextID,
	}
	if caps, ok := s.GetParameter(models.ParamCapabilities); ok && caps != "" {
		body["modules"] = caps
	}
	return body
}

// buildLoginRequest assembles the immutable per-request value every strategy
// consumes. The cookie hash is computed once here.
func buildLoginRequest(c *gin.Context, cfg *config.Config) *models.LoginRequest {
	ua := c.Request.UserAgent()
	client := param(c, "client")
	return &models.LoginRequest{
		Login:         param(c, "name"),
		Password:      param(c, "password"),
		ClientID:      client,
		ClientVersion: param(c, "version"),
		AuthID:        param(c, "authId"),
		ClientIP:      c.ClientIP(),
		UserAgent:     ua,
		Headers:       c.Request.Header,
		Cookies:       c.Request.Cookies(),
		Hash:          login.CookieHash(cfg.Cookie.HashSalt, ua, client),
		Secure:        c.Request.TLS != nil || cfg.Server.ForceHTTPS,
		ServerName:    c.Request.Host,
	}
}

// uiWebPath is where form and token logins land after the redirect.
func uiWebPath(c *gin.Context, cfg *config.Config) string {
	if p := param(c, "uiWebPath"); p != "" {
		return p
	}
	return "/appsuite/"
}

// param reads a request parameter from the query string or the form body,
// in that order.
func param(c *gin.Context, name string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return c.PostForm(name)
}
