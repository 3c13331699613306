package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/harborbank/portal/internal/coreapi"
)

// tokenCodec signs and verifies the compact HS256 tokens handed to browsers.
// The token only references the session record; the core bearer token never
// leaves the server side.
type tokenCodec struct {
	secret []byte
}

type portalClaims struct {
	Role coreapi.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *tokenCodec) sign(sessionID string, role coreapi.Role, expiresAt time.Time) (string, error) {
	claims := portalClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *tokenCodec) verify(token string) (string, error) {
	var claims portalClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}
