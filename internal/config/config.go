// Package config holds the process configuration as an immutable snapshot.
// The snapshot is replaced atomically on reload; it is never mutated in
// place, so readers may hold a *Config across a request without locking.
package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/iprange"
)

// Config is the root configuration snapshot.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
	IPCheck  IPCheckConfig  `mapstructure:"ip_check"`
	Session  SessionConfig  `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Mail     MailConfig     `mapstructure:"mail"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`

	// parsed once at load; read-only afterwards
	ipRanges    []iprange.Range
	ipWhitelist []iprange.Range
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Name       string `mapstructure:"name"`
	ListenAddr string `mapstructure:"listen_addr"`
	ForceHTTPS bool   `mapstructure:"force_https"`
	// LoginRatePerHour throttles the login route per client address.
	// Zero disables throttling.
	LoginRatePerHour int `mapstructure:"login_rate_per_hour"`
}

// CookieConfig controls how identifying cookies are written and read back.
type CookieConfig struct {
	// HashSource selects which hash names the secret cookie on read:
	// "calculate" derives it from the request, "remember" uses the hash
	// stored on the session.
	HashSource string `mapstructure:"hash_source"`
	// TTL in seconds; negative means browser-session lifetime.
	TTL int `mapstructure:"ttl"`
	// HashSalt is mixed into the request fingerprint.
	HashSalt string `mapstructure:"hash_salt"`
	Domain   string `mapstructure:"domain"`
}

// IPCheckConfig controls the session IP-change policy.
type IPCheckConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Insecure opts into updating the session IP whenever it differs from
	// the request IP, independent of the check outcome. Meant for
	// deployments behind IP-rotating proxies.
	Insecure bool `mapstructure:"insecure"`
	// RebindOnRedeem allows token redemption to rebind the session IP when
	// Insecure is set. When false, redemption only rebinds if the old IP
	// was empty or whitelisted.
	RebindOnRedeem bool     `mapstructure:"rebind_on_redeem"`
	Ranges         []string `mapstructure:"ranges"`
	Whitelist      []string `mapstructure:"whitelist"`
}

// SessionConfig controls session lifetime and auto-login policy.
type SessionConfig struct {
	MaxAge      int  `mapstructure:"max_age"`      // seconds
	IdleTimeout int  `mapstructure:"idle_timeout"` // seconds
	Autologin   bool `mapstructure:"autologin"`
	// HTTPAutologinFallback chains into HTTP auto-login when cookie-based
	// auto-login is administratively disabled.
	HTTPAutologinFallback bool `mapstructure:"http_autologin_fallback"`
}

// AuthConfig configures the authentication backends.
type AuthConfig struct {
	JWT  JWTConfig  `mapstructure:"jwt"`
	LDAP LDAPConfig `mapstructure:"ldap"`
}

// JWTConfig configures bearer-token validation for the OAuth login action.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LDAPConfig configures the optional LDAP auth provider.
type LDAPConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Server     string `mapstructure:"server"`
	Port       int    `mapstructure:"port"`
	BaseDN     string `mapstructure:"base_dn"`
	BindDN     string `mapstructure:"bind_dn"`
	BindPass   string `mapstructure:"bind_password"`
	UserFilter string `mapstructure:"user_filter"`
	TLS        bool   `mapstructure:"tls"`
}

// MailConfig controls mail-account behavior for the folder aggregation.
type MailConfig struct {
	UnifiedEnabled bool `mapstructure:"unified_enabled"`
	// FanoutWorkers bounds the shared pool used for per-account fetches.
	FanoutWorkers int    `mapstructure:"fanout_workers"`
	TLSMode       string `mapstructure:"tls_mode"`
	TLS           bool   `mapstructure:"tls"`
}

// DatabaseConfig describes the SQL backend.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "mysql", "postgres", "sqlite3"
	DSN      string `mapstructure:"dsn"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	Lifetime time.Duration `mapstructure:"conn_lifetime"`
}

// RedisConfig describes the Redis backend for the session and token stores.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

var current atomic.Pointer[Config]

// Get returns the current configuration snapshot, or nil before Load.
func Get() *Config {
	return current.Load()
}

// Replace atomically swaps in a new snapshot. Used by Load and by tests.
func Replace(cfg *Config) {
	current.Store(cfg)
}

// Load reads the configuration file (plus OX_-prefixed environment
// overrides), finalizes derived fields and installs it as the current
// snapshot.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Without a file the defaults plus environment overrides apply.
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	Replace(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("cookie.hash_source", "calculate")
	v.SetDefault("cookie.ttl", -1)
	v.SetDefault("session.max_age", 57600)
	v.SetDefault("session.idle_timeout", 7200)
	v.SetDefault("session.autologin", true)
	v.SetDefault("mail.unified_enabled", true)
	v.SetDefault("mail.fanout_workers", 8)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("auth.ldap.port", 389)
}

// Finalize parses derived read-only fields (IP ranges). Must be called once
// before the snapshot is installed.
func (c *Config) Finalize() error {
	ranges, err := iprange.ParseList(c.IPCheck.Ranges)
	if err != nil {
		return fmt.Errorf("config: ip_check.ranges: %w", err)
	}
	whitelist, err := iprange.ParseList(c.IPCheck.Whitelist)
	if err != nil {
		return fmt.Errorf("config: ip_check.whitelist: %w", err)
	}
	c.ipRanges = ranges
	c.ipWhitelist = whitelist
	return nil
}

// IPRanges returns the parsed allow-listed ranges.
func (c *Config) IPRanges() []iprange.Range { return c.ipRanges }

// IPWhitelist returns the parsed whitelist ranges.
func (c *Config) IPWhitelist() []iprange.Range { return c.ipWhitelist }

// CookieTTL returns the configured cookie lifetime, or false when cookies
// should be browser-session scoped. Auto-login forces a persistent lifetime
// so the cookies survive a browser restart.
func (c *Config) CookieTTL() (time.Duration, bool) {
	if c.Session.Autologin {
		ttl := c.Cookie.TTL
		if ttl < 0 {
			ttl = c.Session.MaxAge
		}
		return time.Duration(ttl) * time.Second, true
	}
	if c.Cookie.TTL >= 0 {
		return time.Duration(c.Cookie.TTL) * time.Second, true
	}
	return 0, false
}
