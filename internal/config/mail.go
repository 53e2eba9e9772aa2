package config

import "strings"

// EffectiveTLSMode normalizes the TLS mode for mail-account connections.
// Supported values: "none", "starttls", "implicit".
// If TLSMode is empty we fall back to the legacy TLS boolean flag.
func (c *MailConfig) EffectiveTLSMode() string {
	if c == nil {
		return "none"
	}
	mode := strings.ToLower(strings.TrimSpace(c.TLSMode))
	switch mode {
	case "", "auto":
		if c.TLS {
			return "starttls"
		}
		return "none"
	case "starttls", "tls":
		return "starttls"
	case "implicit", "imaps", "pop3s", "tls_implicit":
		return "implicit"
	case "none", "off", "disabled":
		return "none"
	default:
		// Unknown value; fall back to boolean for backward compatibility
		if c.TLS {
			return "starttls"
		}
		return "none"
	}
}
