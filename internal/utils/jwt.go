package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for reset tokens
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"
	"fmt"
	"strconv" // the subject claim carries the user id as a string
	"time"    // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned by ParseAccessToken for any token that must not
// be trusted: bad signature, wrong algorithm, malformed, expired or missing
// claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT session token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp.  Clients send it in the Authorization header when calling
// protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// AccessClaims are the claims extracted from a verified session token.
type AccessClaims struct {
	UserID uint64
	Email  string
	Exp    time.Time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT includes
// the subject (sub, the user id in decimal), the user's email, the expiration
// (exp) and issued at (iat) claims.  now is passed in so callers control the
// clock.
func NewAccessToken(secret string, userID uint64, email string, ttl time.Duration, now time.Time) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(ttl)
	// Using MapClaims keeps the payload flat: sub, email, exp, iat.
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(userID, 10),
		"email": email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: time.Unix(exp.Unix(), 0).UTC()}, nil
}

// ParseAccessToken verifies raw against secret and returns its claims.  Only
// HS256 is accepted and the exp claim is mandatory.  Expiry is judged against
// now.
func ParseAccessToken(secret, raw string, now time.Time) (AccessClaims, error) {
	tok, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) {
			// Return the secret bytes used to sign the token.
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !tok.Valid {
		return AccessClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return AccessClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return AccessClaims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return AccessClaims{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	return AccessClaims{UserID: id, Email: email, Exp: exp.Time.UTC()}, nil
}

// NewResetToken returns a fresh raw password reset token: 32 random bytes,
// hex encoded.  Only HashToken(raw) may be persisted.
func NewResetToken() (string, error) {
	return randomHex(32)
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
