package login

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// CookieHash derives the client fingerprint hash that names the identifying
// cookies. The same (salt, user agent, client) triple always yields the same
// string: the hash is computed on cookie write and recomputed on cookie read,
// so any instability would orphan every cookie.
func CookieHash(salt, userAgent, client string) string {
	d := xxhash.New()
	_, _ = d.WriteString(salt)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(userAgent)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(client)
	sum := d.Sum(nil)
	return hex.EncodeToString(sum)
}
