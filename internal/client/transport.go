package client

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthTransport attaches the bearer credential to every request. Requests go
// out without one when the token source has nothing, the API then decides.
type AuthTransport struct {
	base   http.RoundTripper
	source oauth2.TokenSource
}

// NewAuthTransport wraps base. A nil base uses http.DefaultTransport.
func NewAuthTransport(base http.RoundTripper, source oauth2.TokenSource) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthTransport{base: base, source: source}
}

type noCredentialKey struct{}

// withoutCredential marks a request context so AuthTransport sends no bearer.
func withoutCredential(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCredentialKey{}, true)
}

func credentialSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(noCredentialKey{}).(bool)
	return v
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.source == nil || credentialSuppressed(req.Context()) {
		return t.base.RoundTrip(req)
	}

	tok, err := t.source.Token()
	if err != nil || !tok.Valid() {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	tok.SetAuthHeader(clone)

	return t.base.RoundTrip(clone)
}
