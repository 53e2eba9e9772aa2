package auth

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
)

// LDAPProvider authenticates by binding against a directory server. It only
// verifies credentials; the context/user mapping comes from the directory
// entry's attributes.
type LDAPProvider struct {
	cfg config.LDAPConfig
}

// NewLDAPProvider creates a provider from the LDAP configuration block.
func NewLDAPProvider(cfg config.LDAPConfig) *LDAPProvider {
	return &LDAPProvider{cfg: cfg}
}

func (p *LDAPProvider) Authenticate(ctx context.Context, login, password string) (*Principal, error) {
	conn, err := p.dial()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthBackendFailed, err)
	}
	defer conn.Close()

	if p.cfg.BindDN != "" {
		if err := conn.Bind(p.cfg.BindDN, p.cfg.BindPass); err != nil {
			return nil, fmt.Errorf("%w: service bind: %v", ErrAuthBackendFailed, err)
		}
	}

	filter := strings.ReplaceAll(p.cfg.UserFilter, "%s", ldap.EscapeFilter(login))
	req := ldap.NewSearchRequest(
		p.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		filter,
		[]string{"dn", "oxContextId", "oxUserId", "preferredLanguage"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrAuthBackendFailed, err)
	}
	if len(res.Entries) == 0 {
		return nil, ErrUserNotFound
	}

	entry := res.Entries[0]
	if err := conn.Bind(entry.DN, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	contextID, _ := strconv.Atoi(entry.GetAttributeValue("oxContextId"))
	userID, _ := strconv.Atoi(entry.GetAttributeValue("oxUserId"))
	return &Principal{
		ContextID: contextID,
		UserID:    userID,
		Login:     login,
		Locale:    entry.GetAttributeValue("preferredLanguage"),
	}, nil
}

func (p *LDAPProvider) dial() (*ldap.Conn, error) {
	addr := fmt.Sprintf("%s:%d", p.cfg.Server, p.cfg.Port)
	if p.cfg.TLS {
		return ldap.DialURL("ldaps://"+addr, ldap.DialWithTLSConfig(&tls.Config{ServerName: p.cfg.Server}))
	}
	return ldap.DialURL("ldap://" + addr)
}

func (p *LDAPProvider) Name() string {
	return "LDAP"
}

func (p *LDAPProvider) Priority() int {
	return 20
}
