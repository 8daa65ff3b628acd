package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/doclink-ai/doclink/internal/domain"
)

// TokenAuthenticator mints and validates access tokens of the form
// "<user-id>.<hmac>". The token is a bearer credential for an already
// provisioned identity; it carries no expiry, revocation means
// rotating the secret.
type TokenAuthenticator struct {
	secret []byte
	users  UserRepositoryInterface
}

func NewTokenAuthenticator(secret string, users UserRepositoryInterface) *TokenAuthenticator {
	return &TokenAuthenticator{secret: []byte(secret), users: users}
}

// MintToken creates a token for userID.
func (a *TokenAuthenticator) MintToken(userID string) string {
	return userID + "." + a.sign(userID)
}

// ValidateToken checks the token signature and returns the user ID.
func (a *TokenAuthenticator) ValidateToken(ctx context.Context, token string) (string, error) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return "", domain.NewDomainError(domain.ErrCodeUnauthorized, "malformed token")
	}

	userID, sig := token[:idx], token[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(a.sign(userID))) {
		return "", domain.NewDomainError(domain.ErrCodeUnauthorized, "invalid token signature")
	}

	// A signed token for a deleted account is still not a credential.
	if _, err := a.users.GetByID(ctx, userID); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUnauthorized, "unknown user", err)
	}
	return userID, nil
}

func (a *TokenAuthenticator) sign(userID string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(userID))
	return hex.EncodeToString(mac.Sum(nil))
}
