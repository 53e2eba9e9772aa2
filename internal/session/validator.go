// Package session implements the server-side session store and the
// session/secret/IP validation rules every authenticated endpoint runs.
package session

import (
	"fmt"
	"net/http"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/iprange"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// IPMismatchError is returned when the request IP differs from the session's
// recorded IP and neither is covered by an allow-listed range. It carries
// both addresses for server-side diagnostics; clients only ever see the
// sanitized error code.
type IPMismatchError struct {
	SessionIP string
	RequestIP string
}

func (e *IPMismatchError) Error() string {
	return fmt.Sprintf("session ip %q does not match request ip %q", e.SessionIP, e.RequestIP)
}

// Cookie hash sources for ExtractSecret.
const (
	HashSourceCalculate = "calculate"
	HashSourceRemember  = "remember"
)

// ValidateIP enforces the IP-change policy for a live session.
//
// With ipCheckEnabled false this is a no-op: the request passes regardless of
// any IP difference and the session is never touched. With the check enabled,
// a differing request IP fails with *IPMismatchError unless the session has
// no recorded IP yet or either address is covered by the allowed ranges or
// the whitelist. ValidateIP never mutates the session; the opt-in relaxation
// for IP-rotating proxies lives in MaybeRebindIP.
func ValidateIP(ipCheckEnabled bool, ranges []iprange.Range, s *models.Session, requestIP string, whitelist []iprange.Range) error {
	if !ipCheckEnabled {
		return nil
	}
	if s.LocalIP == "" || requestIP == s.LocalIP {
		return nil
	}
	if iprange.AnyContains(ranges, requestIP) || iprange.AnyContains(ranges, s.LocalIP) {
		return nil
	}
	if iprange.AnyContains(whitelist, requestIP) || iprange.AnyContains(whitelist, s.LocalIP) {
		return nil
	}
	return &IPMismatchError{SessionIP: s.LocalIP, RequestIP: requestIP}
}

// MaybeRebindIP updates the session's local IP to the request IP whenever
// they differ, independent of the check outcome. Only active when the
// deployment opted into insecure mode. Reports whether the IP was changed.
func MaybeRebindIP(insecure bool, s *models.Session, requestIP string) bool {
	if !insecure || requestIP == "" || requestIP == s.LocalIP {
		return false
	}
	s.LocalIP = requestIP
	return true
}

// ExtractSecret reads the secret from the cookie named
// "open-xchange-secret-<hash>". Which hash is used depends on the configured
// source: "remember" uses the hash stored on the session, anything else uses
// the hash computed from the current request. Returns false when no matching
// cookie is present.
func ExtractSecret(hashSource string, cookies []*http.Cookie, sessionHash, computedHash string) (string, bool) {
	hash := computedHash
	if hashSource == HashSourceRemember {
		hash = sessionHash
	}
	name := models.SecretCookiePrefix + hash
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// ValidateSecret reports whether the extracted secret matches the session's
// stored secret. Comparison is exact byte equality; no normalization.
func ValidateSecret(s *models.Session, secret string) bool {
	return secret != "" && secret == s.Secret
}
