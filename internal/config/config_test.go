package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeParsesRanges(t *testing.T) {
	cfg := &Config{}
	cfg.IPCheck.Ranges = []string{"10.0.0.0/8"}
	cfg.IPCheck.Whitelist = []string{"192.168.0.1-192.168.0.9"}
	require.NoError(t, cfg.Finalize())

	assert.Len(t, cfg.IPRanges(), 1)
	assert.Len(t, cfg.IPWhitelist(), 1)

	bad := &Config{}
	bad.IPCheck.Ranges = []string{"bogus"}
	assert.Error(t, bad.Finalize())
}

func TestCookieTTL(t *testing.T) {
	t.Run("session scoped by default", func(t *testing.T) {
		cfg := &Config{}
		cfg.Cookie.TTL = -1
		_, persistent := cfg.CookieTTL()
		assert.False(t, persistent)
	})

	t.Run("explicit ttl is persistent", func(t *testing.T) {
		cfg := &Config{}
		cfg.Cookie.TTL = 600
		ttl, persistent := cfg.CookieTTL()
		require.True(t, persistent)
		assert.Equal(t, 10*time.Minute, ttl)
	})

	t.Run("autologin forces persistence", func(t *testing.T) {
		cfg := &Config{}
		cfg.Cookie.TTL = -1
		cfg.Session.Autologin = true
		cfg.Session.MaxAge = 3600
		ttl, persistent := cfg.CookieTTL()
		require.True(t, persistent)
		assert.Equal(t, time.Hour, ttl, "autologin falls back to the session max age")
	})
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "calculate", cfg.Cookie.HashSource)
	assert.Equal(t, -1, cfg.Cookie.TTL)
	assert.Positive(t, cfg.Session.MaxAge)

	assert.Same(t, cfg, Get(), "load installs the snapshot")
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	_, err := Load("")
	require.NoError(t, err)
	old := Get()

	next := *old
	next.Server.Name = "replaced"
	Replace(&next)
	assert.Equal(t, "replaced", Get().Server.Name)
	assert.NotEqual(t, old, Get())
}
