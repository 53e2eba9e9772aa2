package login

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/auth"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// oauthClaims is the claim set expected on an OAuth access token.
type oauthClaims struct {
	ContextID int    `json:"cid"`
	UserID    int    `json:"uid"`
	Login     string `json:"login"`
	jwt.RegisteredClaims
}

// OAuth validates a bearer access token and establishes a session for the
// principal it names. Token issuance itself lives with the external
// authorization server; this strategy only consumes tokens.
func (o *Orchestrator) OAuth(ctx context.Context, req *models.LoginRequest, rawToken string) models.LoginOutcome {
	cfg := o.conf()

	var claims oauthClaims
	token, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Auth.JWT.Secret), nil
	}, jwt.WithIssuer(cfg.Auth.JWT.Issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return models.FailedOutcome(auth.ErrInvalidCredentials)
	}
	if claims.ContextID <= 0 || claims.UserID <= 0 {
		return models.FailedOutcome(auth.ErrInvalidCredentials)
	}

	principal := &auth.Principal{
		ContextID: claims.ContextID,
		UserID:    claims.UserID,
		Login:     claims.Login,
	}
	s := o.newSession(principal, req)
	if err := o.store.Save(ctx, s); err != nil {
		return models.FailedOutcome(fmt.Errorf("login: storing oauth session: %w", err))
	}
	return models.SuccessOutcome(s)
}
