package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/auth"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/login"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/session"
)

type stubProvider struct {
	principal *auth.Principal
	err       error
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Priority() int { return 1 }

func (p *stubProvider) Authenticate(ctx context.Context, loginName, password string) (*auth.Principal, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.principal, nil
}

type loginTestEnv struct {
	cfg    *config.Config
	store  *session.MemoryStore
	orch   *login.Orchestrator
	router *gin.Engine
}

func newLoginTestEnv(t *testing.T, mutate func(*config.Config)) *loginTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Cookie.HashSource = session.HashSourceCalculate
	cfg.Cookie.TTL = -1
	cfg.Cookie.HashSalt = "test-salt"
	cfg.Session.Autologin = true
	cfg.Session.MaxAge = 3600
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Finalize())
	conf := func() *config.Config { return cfg }

	store := session.NewMemoryStore(time.Hour)
	authenticator := auth.NewAuthenticator(&stubProvider{
		principal: &auth.Principal{ContextID: 1, UserID: 3, Login: "anton"},
	})
	orch := login.NewOrchestrator(store, authenticator, nil, conf)

	router := gin.New()
	router.GET("/ajax/login", NewLoginHandler(orch, conf).Handle)
	router.POST("/ajax/login", NewLoginHandler(orch, conf).Handle)

	return &loginTestEnv{cfg: cfg, store: store, orch: orch, router: router}
}

func (e *loginTestEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginAction(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	hash := login.CookieHash("test-salt", "", "")

	req := httptest.NewRequest(http.MethodPost, "/ajax/login?action=login&name=anton&password=secret", nil)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["session"])
	assert.Equal(t, "anton", body["user"])
	assert.EqualValues(t, 3, body["user_id"])
	assert.EqualValues(t, 1, body["context_id"])
	assert.NotContains(t, rec.Body.String(), "secret-", "the secret never appears in the body")

	cookies := rec.Result().Cookies()
	secret := cookieByName(cookies, models.SecretCookiePrefix+hash)
	require.NotNil(t, secret, "secret cookie is written")
	assert.True(t, secret.HttpOnly)

	sess := cookieByName(cookies, models.SessionCookiePrefix+hash)
	require.NotNil(t, sess, "autologin writes the session cookie")
	assert.Equal(t, body["session"], sess.Value)

	public := cookieByName(cookies, models.PublicSessionCookiePrefix+hash)
	assert.NotNil(t, public)
}

func TestLoginActionFailure(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	env.router = gin.New()
	store := session.NewMemoryStore(time.Hour)
	authenticator := auth.NewAuthenticator(&stubProvider{err: auth.ErrInvalidCredentials})
	conf := func() *config.Config { return env.cfg }
	orch := login.NewOrchestrator(store, authenticator, nil, conf)
	env.router.POST("/ajax/login", NewLoginHandler(orch, conf).Handle)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/ajax/login?action=login&name=anton&password=wrong", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "login:failed")
	assert.Empty(t, rec.Result().Cookies())
}

func TestUnknownAction(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=fly", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "core:unknown_action")
}

func TestLoginCallbackRendersHTML(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	rec := env.do(httptest.NewRequest(http.MethodPost, "/ajax/login?action=login&name=anton&password=secret&callback=login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "callback_login(")
}

func establishSession(t *testing.T, env *loginTestEnv) (*models.Session, []*http.Cookie) {
	t.Helper()
	rec := env.do(httptest.NewRequest(http.MethodPost, "/ajax/login?action=login&name=anton&password=secret", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	s, err := env.store.Lookup(context.Background(), body["session"].(string))
	require.NoError(t, err)
	return s, rec.Result().Cookies()
}

func TestAutologinAction(t *testing.T) {
	t.Run("restores from cookies", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		s, cookies := establishSession(t, env)

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=autologin", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), s.ID)
	})

	t.Run("ip mismatch destroys session and strips cookies", func(t *testing.T) {
		env := newLoginTestEnv(t, func(cfg *config.Config) {
			cfg.IPCheck.Enabled = true
		})
		s, cookies := establishSession(t, env)

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=autologin", nil)
		req.RemoteAddr = "198.51.100.9:4321"
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := env.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "session:ip_mismatch")

		_, err := env.store.Lookup(context.Background(), s.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		for _, c := range rec.Result().Cookies() {
			assert.Equal(t, -1, c.MaxAge, "cookie %s must be expired", c.Name)
		}
	})

	t.Run("without cookies fails", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=autologin", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "login:autologin_failed")
	})

	t.Run("session cookie alone fails and is stripped", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		s, cookies := establishSession(t, env)
		hash := login.CookieHash("test-salt", "", "")

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=autologin", nil)
		req.AddCookie(cookieByName(cookies, models.SessionCookiePrefix+hash))
		rec := env.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "login:autologin_failed")

		expired := cookieByName(rec.Result().Cookies(), models.SessionCookiePrefix+hash)
		require.NotNil(t, expired, "the cookie that failed to restore must be stripped")
		assert.Equal(t, -1, expired.MaxAge)

		_, err := env.store.Lookup(context.Background(), s.ID)
		assert.NoError(t, err, "a failed restore must not destroy the session")
	})

	t.Run("stale cookies for a gone session are stripped", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		s, cookies := establishSession(t, env)
		require.NoError(t, env.store.Remove(context.Background(), s.ID))

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=autologin", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := env.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		hash := login.CookieHash("test-salt", "", "")
		for _, name := range []string{
			models.SessionCookiePrefix + hash,
			models.SecretCookiePrefix + hash,
			models.PublicSessionCookiePrefix + hash,
		} {
			c := cookieByName(rec.Result().Cookies(), name)
			require.NotNil(t, c, "cookie %s must be stripped", name)
			assert.Equal(t, -1, c.MaxAge)
		}
	})
}

func TestLogoutAction(t *testing.T) {
	t.Run("with valid cookies removes the session", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		s, cookies := establishSession(t, env)

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=logout&session="+s.ID, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		req.AddCookie(&http.Cookie{Name: models.ShardCookieName, Value: "shard"})
		rec := env.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)

		_, err := env.store.Lookup(context.Background(), s.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		expired := rec.Result().Cookies()
		assert.NotEmpty(t, expired)
		for _, c := range expired {
			assert.Equal(t, -1, c.MaxAge)
		}
		assert.NotNil(t, cookieByName(expired, models.ShardCookieName))
	})

	t.Run("session id alone does not authorize the removal", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		s, _ := establishSession(t, env)

		rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=logout&session="+s.ID, nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "session:secret_mismatch")

		_, err := env.store.Lookup(context.Background(), s.ID)
		assert.NoError(t, err, "the session must survive a cookie-less logout")
	})

	t.Run("wrong secret keeps the session", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		s, _ := establishSession(t, env)
		hash := login.CookieHash("test-salt", "", "")

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=logout&session="+s.ID, nil)
		req.AddCookie(&http.Cookie{Name: models.SecretCookiePrefix + hash, Value: "wrong"})
		rec := env.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		_, err := env.store.Lookup(context.Background(), s.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown session is idempotent", func(t *testing.T) {
		env := newLoginTestEnv(t, nil)
		_, cookies := establishSession(t, env)

		req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=logout&session=deadbeef", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := env.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)
		for _, c := range rec.Result().Cookies() {
			assert.Equal(t, -1, c.MaxAge)
		}
	})
}

func TestRefreshSecretAction(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	s, cookies := establishSession(t, env)
	oldSecret := s.Secret

	req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=refreshSecret&session="+s.ID, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed, err := env.store.Lookup(context.Background(), s.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldSecret, refreshed.Secret)

	hash := login.CookieHash("test-salt", "", "")
	secretCookie := cookieByName(rec.Result().Cookies(), models.SecretCookiePrefix+hash)
	require.NotNil(t, secretCookie)
	assert.Equal(t, refreshed.Secret, secretCookie.Value)
}

func TestStoreActionRequiresValidSecret(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	s, _ := establishSession(t, env)

	// No secret cookie at all.
	rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=store&session="+s.ID, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "session:secret_mismatch")

	// A wrong secret rejects but keeps the session alive.
	hash := login.CookieHash("test-salt", "", "")
	req := httptest.NewRequest(http.MethodGet, "/ajax/login?action=store&session="+s.ID, nil)
	req.AddCookie(&http.Cookie{Name: models.SecretCookiePrefix + hash, Value: "wrong"})
	rec = env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := env.store.Lookup(context.Background(), s.ID)
	assert.NoError(t, err, "secret mismatch must not destroy the session")
}

func TestRedeemAction(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	s, _ := establishSession(t, env)

	token, err := env.store.IssueRandomToken(context.Background(), s.ID)
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=redeem&token="+token, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), s.ID)

	// Second redemption of the same token fails.
	rec = env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=redeem&token="+token, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "login:token_invalid")
}

func TestRedirectAction(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	s, _ := establishSession(t, env)

	token, err := env.store.IssueRandomToken(context.Background(), s.ID)
	require.NoError(t, err)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=redirect&token="+token, nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/appsuite/#session="+s.ID, rec.Header().Get("Location"))
}

func TestMissingTokenParameter(t *testing.T) {
	env := newLoginTestEnv(t, nil)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/ajax/login?action=redeem", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "core:missing_parameter")
}
