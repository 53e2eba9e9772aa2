package login

import (
	"net"
	"net/http"
	"strings"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// CookieWriter builds the identifying cookies for a login response. Every
// cookie it writes uses path "/", is Secure when the request came over TLS
// or HTTPS is forced, carries a Max-Age only when auto-login or a configured
// TTL asks for persistence, and carries a Domain only when one can be
// resolved from the server name.
type CookieWriter struct {
	cfg        *config.Config
	secure     bool
	serverName string
}

// NewCookieWriter captures the per-request cookie context.
func NewCookieWriter(cfg *config.Config, requestSecure bool, serverName string) *CookieWriter {
	return &CookieWriter{
		cfg:        cfg,
		secure:     requestSecure || cfg.Server.ForceHTTPS,
		serverName: serverName,
	}
}

// SecretCookie names and fills the secret cookie for a session.
func (w *CookieWriter) SecretCookie(s *models.Session) *http.Cookie {
	return w.build(models.SecretCookiePrefix+s.Hash, s.Secret)
}

// SessionCookie names and fills the session cookie for a session.
func (w *CookieWriter) SessionCookie(s *models.Session) *http.Cookie {
	return w.build(models.SessionCookiePrefix+s.Hash, s.ID)
}

// PublicSessionCookie fills the public-session cookie, or nil when the
// session has no alternative id assigned.
func (w *CookieWriter) PublicSessionCookie(s *models.Session) *http.Cookie {
	altID := s.AlternativeID()
	if altID == "" {
		return nil
	}
	return w.build(models.PublicSessionCookiePrefix+s.Hash, altID)
}

// WriteAll writes the secret cookie and, when present, the public-session
// cookie to the response.
func (w *CookieWriter) WriteAll(rw http.ResponseWriter, s *models.Session) {
	http.SetCookie(rw, w.SecretCookie(s))
	if c := w.PublicSessionCookie(s); c != nil {
		http.SetCookie(rw, c)
	}
}

// WriteSession additionally writes the session cookie, used by flows that
// enable cookie-based auto-login.
func (w *CookieWriter) WriteSession(rw http.ResponseWriter, s *models.Session) {
	http.SetCookie(rw, w.SessionCookie(s))
}

func (w *CookieWriter) build(name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Secure:   w.secure,
		HttpOnly: true,
	}
	if ttl, persistent := w.cfg.CookieTTL(); persistent {
		c.MaxAge = int(ttl.Seconds())
	}
	if domain := w.cookieDomain(); domain != "" {
		c.Domain = domain
	}
	return c
}

// cookieDomain resolves the Domain attribute: an explicitly configured
// domain wins, otherwise a dotted server name is used as-is. IP literals,
// bare hosts and an empty server name yield no Domain attribute at all.
func (w *CookieWriter) cookieDomain() string {
	if d := w.cfg.Cookie.Domain; d != "" {
		return d
	}
	name := strings.TrimSpace(w.serverName)
	if name == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(name); err == nil {
		name = host
	}
	if net.ParseIP(name) != nil {
		return ""
	}
	if !strings.Contains(name, ".") {
		return ""
	}
	return name
}

// PurgeSessionCookies expires every identifying cookie family present on the
// request: session, secret and public-session. Called when auto-login fails
// and when an IP mismatch destroys a session.
func PurgeSessionCookies(rw http.ResponseWriter, r *http.Request) {
	for _, c := range r.Cookies() {
		if strings.HasPrefix(c.Name, models.SessionCookiePrefix) ||
			strings.HasPrefix(c.Name, models.SecretCookiePrefix) ||
			strings.HasPrefix(c.Name, models.PublicSessionCookiePrefix) {
			expireCookie(rw, c.Name)
		}
	}
}

// PurgeShardCookie expires the generic web-session cookie on logout.
func PurgeShardCookie(rw http.ResponseWriter, r *http.Request) {
	for _, c := range r.Cookies() {
		if c.Name == models.ShardCookieName {
			expireCookie(rw, c.Name)
		}
	}
}

func expireCookie(rw http.ResponseWriter, name string) {
	http.SetCookie(rw, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
