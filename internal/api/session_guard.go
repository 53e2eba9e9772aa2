package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/apierrors"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/login"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/session"
)

// resolveSession authenticates a request against an established session: the
// session id comes from the "session" parameter, the secret from the request
// cookies. On success the caller gets the live session; on failure the error
// response has already been written.
//
// The two checks fail differently on purpose. A secret mismatch only rejects
// the request, since a stale cookie from another browser profile is a benign
// cause. An IP mismatch tears the session down and strips the cookies, since
// a moved session cookie is the hijack signature.
func resolveSession(c *gin.Context, store session.Store, orch *login.Orchestrator, cfg *config.Config) (*models.Session, bool) {
	sessionID := param(c, "session")
	if sessionID == "" {
		apierrors.Error(c, apierrors.CodeMissingParameter)
		return nil, false
	}

	s, err := store.Lookup(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			apierrors.Error(c, apierrors.CodeSessionExpired)
		} else {
			apierrors.Error(c, apierrors.CodeServiceUnavailable)
		}
		return nil, false
	}

	if !guardSession(c, s, orch, cfg) {
		return nil, false
	}

	if session.MaybeRebindIP(cfg.IPCheck.Insecure, s, c.ClientIP()) {
		if err := store.Save(c.Request.Context(), s); err != nil {
			apierrors.Error(c, apierrors.CodeServiceUnavailable)
			return nil, false
		}
	}
	return s, true
}

// guardSession runs the secret and IP checks on a looked-up session and
// writes the error response when either fails.
func guardSession(c *gin.Context, s *models.Session, orch *login.Orchestrator, cfg *config.Config) bool {
	computed := login.CookieHash(cfg.Cookie.HashSalt, c.Request.UserAgent(), param(c, "client"))
	secret, ok := session.ExtractSecret(cfg.Cookie.HashSource, c.Request.Cookies(), s.Hash, computed)
	if !ok || !session.ValidateSecret(s, secret) {
		apierrors.Error(c, apierrors.CodeSecretMismatch)
		return false
	}

	if err := session.ValidateIP(cfg.IPCheck.Enabled, cfg.IPRanges(), s, c.ClientIP(), cfg.IPWhitelist()); err != nil {
		var mismatch *session.IPMismatchError
		if errors.As(err, &mismatch) {
			orch.Destroy(c.Request.Context(), s.ID)
			login.PurgeSessionCookies(c.Writer, c.Request)
			login.PurgeShardCookie(c.Writer, c.Request)
		}
		apierrors.Error(c, apierrors.CodeSessionIPMismatch)
		return false
	}
	return true
}
