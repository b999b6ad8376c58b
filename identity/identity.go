// Package identity is a session-identity convenience built on
// github.com/golang-jwt/jwt/v5: it signs and verifies a compact session
// token and formats it as a cookie, grounded on the original's
// src/server/identity.rs session-cookie handling. Like package router, it
// sits outside the tophat core's contract — nothing in tophat.Accept
// requires it.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload signed into a session token. Subject identifies the
// principal (e.g. a user ID); the embedded RegisteredClaims carries
// issued-at and expiry.
type Claims struct {
	Subject string `json:"sub"`
	jwt.RegisteredClaims
}

// ErrNoToken is returned by FromCookieHeader when the named cookie is absent.
var ErrNoToken = errors.New("identity: no session cookie")

// Signer signs and verifies session tokens with a single HMAC secret.
// Rotation is out of scope: a deployment that needs key rotation runs two
// Signers and tries each in turn on verification.
type Signer struct {
	secret []byte
	ttl    time.Duration
	cookie string
}

// NewSigner returns a Signer using secret to sign tokens, each valid for
// ttl, stored under the cookie name.
func NewSigner(secret []byte, ttl time.Duration, cookieName string) *Signer {
	return &Signer{secret: secret, ttl: ttl, cookie: cookieName}
}

// Issue signs a new session token for subject and returns it as a Set-Cookie
// header value ready for ResponseWriter.AppendHeader("Set-Cookie", ...).
func (s *Signer) Issue(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign: %w", err)
	}
	c := &http.Cookie{
		Name:     s.cookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	return c.String(), nil
}

// Verify parses and validates a session token, returning its subject.
func (s *Signer) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("identity: verify: %w", err)
	}
	if !parsed.Valid {
		return "", errors.New("identity: invalid token")
	}
	return claims.Subject, nil
}

// CookieName returns the cookie name this Signer reads and writes.
func (s *Signer) CookieName() string { return s.cookie }

// FromCookieHeader extracts and verifies the session token out of a raw
// Cookie header value (as found in tophat's Header type, which has no
// built-in cookie parser), returning the subject on success.
func (s *Signer) FromCookieHeader(raw string) (string, error) {
	header := http.Header{"Cookie": []string{raw}}
	req := &http.Request{Header: header}
	c, err := req.Cookie(s.cookie)
	if err != nil {
		return "", ErrNoToken
	}
	return s.Verify(c.Value)
}
