package auth

import (
	"time"

	"gopkg.in/square/go-jose.v2/jwt"
)

type APIKeyTokenVerifier struct {
	token    *jwt.JSONWebToken
	apiKey   string
	identity string
	secret   string
}

// ParseAPIToken parses a raw token without verifying it. Claims must not be
// trusted until Verify succeeds.
func ParseAPIToken(raw string) (*APIKeyTokenVerifier, error) {
	tok, err := jwt.ParseSigned(raw)
	if err != nil {
		return nil, ErrMalformedToken
	}

	out := jwt.Claims{}
	if err := tok.UnsafeClaimsWithoutVerification(&out); err != nil {
		return nil, ErrMalformedToken
	}

	return &APIKeyTokenVerifier{
		token:    tok,
		apiKey:   out.Issuer,
		identity: out.Subject,
	}, nil
}

// APIKey returns the API key this token claims to be signed with
func (v *APIKeyTokenVerifier) APIKey() string {
	return v.apiKey
}

// Identity returns the subject identity the token was issued to
func (v *APIKeyTokenVerifier) Identity() string {
	return v.identity
}

func (v *APIKeyTokenVerifier) SetSecretKey(secret string) {
	v.secret = secret
}

// Verify checks the signature against the secret and validates the
// registered claims before returning the grants.
func (v *APIKeyTokenVerifier) Verify() (*ClaimGrants, error) {
	if v.secret == "" {
		return nil, ErrKeysMissing
	}
	out := jwt.Claims{}
	claims := ClaimGrants{}
	if err := v.token.Claims([]byte(v.secret), &out, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if err := out.Validate(jwt.Expected{Issuer: v.apiKey, Time: time.Now()}); err != nil {
		return nil, err
	}
	claims.Identity = out.Subject
	return &claims, nil
}
