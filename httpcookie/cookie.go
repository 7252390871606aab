// Package httpcookie carries opaque session tokens in signed HTTP cookies.
//
// The session token itself never leaves the backend unwrapped: the cookie
// value is a compact HMAC-signed envelope around the token, so a tampered
// cookie is rejected before it ever reaches the session store. The
// envelope carries no authorization state; revocation stays a pure
// backend concern.
package httpcookie

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultName is the cookie name used when Config.Name is empty.
const DefaultName = "session"

// ErrInvalidCookie covers missing, malformed, tampered, and expired
// cookie values.
var ErrInvalidCookie = errors.New("invalid session cookie")

// Config controls cookie attributes and envelope signing.
type Config struct {
	// Name of the cookie. Empty means DefaultName.
	Name string
	// Secure marks the cookie HTTPS-only. Leave false only in local
	// development.
	Secure bool
	// MaxAge caps the envelope lifetime and the cookie's Max-Age
	// attribute. Match it to the session TTL.
	MaxAge time.Duration
	// SigningKey is the HMAC-SHA256 key for the envelope. Required.
	SigningKey []byte
}

func (c Config) name() string {
	if c.Name == "" {
		return DefaultName
	}
	return c.Name
}

// Codec signs session tokens into cookie values and back.
type Codec struct {
	cfg Config
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("signing key required")
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("max age must be positive")
	}
	return &Codec{cfg: cfg}, nil
}

// Encode wraps a session token in a signed envelope suitable for a
// cookie value.
func (c *Codec) Encode(token string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   token,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.MaxAge)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.SigningKey)
}

// Decode verifies a cookie value and returns the session token inside.
func (c *Codec) Decode(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return c.cfg.SigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}

// Set writes the signed session cookie onto the response.
func (c *Codec) Set(w http.ResponseWriter, token string) error {
	value, err := c.Encode(token)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.name(),
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read extracts and verifies the session token from the request cookie.
func (c *Codec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.cfg.name())
	if err != nil {
		return "", ErrInvalidCookie
	}
	return c.Decode(cookie.Value)
}

// Clear overwrites the cookie with an expired tombstone.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
