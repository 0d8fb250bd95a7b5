package localnode

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are neither the static token
// nor a JWT signed with the node secret.
var ErrInvalidToken = errors.New("invalid token")

// permissionClaims is the payload of celestia-node auth tokens.
type permissionClaims struct {
	Allow []auth.Permission `json:"Allow"`
	jwt.RegisteredClaims
}

// NewJWT signs a token granting perms with secret, valid for ttl. A zero ttl
// never expires, as with celestia-node's `auth` command.
func NewJWT(secret []byte, ttl time.Duration, perms ...auth.Permission) (string, error) {
	claims := permissionClaims{Allow: perms}
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return token, nil
}

// DecodeSecret decodes a hex-encoded JWT secret, with or without 0x prefix.
func DecodeSecret(jwtSecret string) ([]byte, error) {
	secret, err := hex.DecodeString(strings.TrimPrefix(jwtSecret, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, errors.New("JWT secret must not be empty")
	}
	return secret, nil
}

func parseJWT(secret []byte, token string) ([]auth.Permission, error) {
	claims := &permissionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.Allow, nil
}
