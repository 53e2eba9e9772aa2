package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/models"
)

// ErrNotFound is returned when no live session exists for an id or token.
var ErrNotFound = errors.New("session: not found")

// RandomTokenTTL bounds how long a redirect token stays redeemable.
const RandomTokenTTL = 2 * time.Minute

// Store is the server-side session store contract. Implementations enforce
// their own expiry and are safe for use from concurrent requests.
type Store interface {
	Lookup(ctx context.Context, sessionID string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Remove(ctx context.Context, sessionID string) error

	// IssueRandomToken creates a one-time token that resolves to the
	// session: a layer of indirection so session ids never ride in URLs.
	IssueRandomToken(ctx context.Context, sessionID string) (string, error)
	// RedeemRandomToken resolves and consumes a token. A token redeems at
	// most once; a second redemption fails with ErrNotFound.
	RedeemRandomToken(ctx context.Context, token string) (*models.Session, error)
}

// NewID returns a secure random identifier: 64 hex characters, 256 bits of
// entropy. Used for session ids, secrets and random tokens alike.
func NewID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in no state to mint
		// credentials at all.
		panic(err)
	}
	return hex.EncodeToString(b)
}
