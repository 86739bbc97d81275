// Package identity verifies ID tokens issued by Google for federated login.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

var (
	ErrNotConfigured    = errors.New("google client id not configured")
	ErrUntrustedIssuer  = errors.New("untrusted token issuer")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrNoEmail          = errors.New("token carries no email")
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

type validator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier checks the signature, audience, expiry and issuer of a
// Google ID token and returns its verified email.
type GoogleVerifier struct {
	clientID  string
	validator validator
	timeout   time.Duration
}

// NewGoogleVerifier builds a verifier for tokens minted for clientID.  Public
// signing certificates are fetched with httpClient (nil means the library
// default).
func NewGoogleVerifier(ctx context.Context, clientID string, httpClient *http.Client) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, ErrNotConfigured
	}
	var opts []option.ClientOption
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	v, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("idtoken validator: %w", err)
	}
	return &GoogleVerifier{clientID: clientID, validator: v, timeout: 10 * time.Second}, nil
}

// Verify implements service.IdentityVerifier.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	p, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		return "", fmt.Errorf("validate id token: %w", err)
	}
	if !googleIssuers[p.Issuer] {
		return "", fmt.Errorf("%w: %q", ErrUntrustedIssuer, p.Issuer)
	}
	email, _ := p.Claims["email"].(string)
	if email == "" {
		return "", ErrNoEmail
	}
	if !claimTrue(p.Claims["email_verified"]) {
		return "", ErrEmailNotVerified
	}
	return email, nil
}

// claimTrue accepts both JSON booleans and the string form some issuers use.
func claimTrue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}
