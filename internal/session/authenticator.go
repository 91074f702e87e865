// File: internal/session/authenticator.go
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wallet.module/internal/constants"
	"wallet.module/internal/errors"
)

// TokenTTL is how long an authentication token stays valid.
const TokenTTL = 120 * time.Second

// AuthToken proves a recent password verification for one operation
// kind. Tokens are bearer capabilities scoped by time: validation
// checks expiry and scope, there is no replay store.
type AuthToken struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	ExpiresAt time.Time `json:"expires_at"`
	Signature string    `json:"signature"`
}

// Authenticator mints and validates auth tokens for sensitive
// operations, throttled by the rate limiter: 5 password attempts per
// minute, 3 exports per hour.
type Authenticator struct {
	limiter *RateLimiter
	secret  []byte // per-process token-signing key
}

// NewAuthenticator draws a random per-process signing key. Tokens do
// not survive a restart, which is the point.
func NewAuthenticator(limiter *RateLimiter) (*Authenticator, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "failed to generate token signing key")
	}
	return &Authenticator{limiter: limiter, secret: secret}, nil
}

func (a *Authenticator) sign(id, operation string, expiresAt time.Time) string {
	mac := hmac.New(sha256.New, a.secret)
	fmt.Fprintf(mac, "%s|%s|%d", id, operation, expiresAt.UnixNano())
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticate verifies a password attempt through the supplied
// callback and mints a token scoped to operation. Both the attempt
// bucket and, for export operations, the export bucket must have
// tokens; a failed password still consumes an attempt.
func (a *Authenticator) Authenticate(operation string, verifyPassword func() bool) (*AuthToken, error) {
	if err := a.limiter.Check(constants.OpExportAuth); err != nil {
		return nil, err
	}

	if !verifyPassword() {
		return nil, errors.NewInvalidCredentialsError()
	}

	switch operation {
	case constants.AuthOpExportSeed, constants.AuthOpExportPrivateKey:
		if err := a.limiter.Check(constants.OpExportKey); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	expiresAt := time.Now().Add(TokenTTL)
	return &AuthToken{
		ID:        id,
		Operation: operation,
		ExpiresAt: expiresAt,
		Signature: a.sign(id, operation, expiresAt),
	}, nil
}

// ValidateToken checks scope, signature and expiry. Expiry fails
// closed: an expired token always demands re-authentication.
func (a *Authenticator) ValidateToken(token *AuthToken, operation string) error {
	if token == nil {
		return errors.NewInvalidCredentialsError().WithDetails("missing authentication token")
	}
	if token.Operation != operation {
		return errors.NewInvalidCredentialsError().
			WithDetails("token is scoped to a different operation").
			WithContext("token_operation", token.Operation).
			WithContext("required_operation", operation)
	}

	expected := a.sign(token.ID, token.Operation, token.ExpiresAt)
	if !hmac.Equal([]byte(expected), []byte(token.Signature)) {
		return errors.NewInvalidCredentialsError().WithDetails("token signature mismatch")
	}

	if time.Now().After(token.ExpiresAt) {
		return errors.NewTokenExpiredError(operation)
	}
	return nil
}
