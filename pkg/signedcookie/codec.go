// Package signedcookie signs cookie payloads as HS256 JWTs so the browser can
// carry them without being able to forge or alter them.
package signedcookie

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid signed cookie")

// Codec signs and verifies cookie values with a shared secret.
type Codec struct {
	secret []byte
	issuer string
}

func New(secret, issuer string) *Codec {
	return &Codec{secret: []byte(secret), issuer: issuer}
}

// Sign encodes claims into a compact token.
func (c *Codec) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies value and decodes it into claims. Expired or tampered values
// return ErrInvalidToken.
func (c *Codec) Parse(value string, claims jwt.Claims) error {
	if value == "" {
		return ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// SessionClaims carry only the opaque server-side session id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SignSession returns the cookie value for sessionID.
func (c *Codec) SignSession(sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	return c.Sign(SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}})
}

// SessionID verifies a session cookie value and returns the session id. The
// token must have been issued by this codec's issuer.
func (c *Codec) SessionID(value string) (string, error) {
	var claims SessionClaims
	if err := c.Parse(value, &claims); err != nil {
		return "", err
	}
	if !claims.VerifyIssuer(c.issuer, true) {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
