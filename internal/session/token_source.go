package session

import (
	"errors"

	"golang.org/x/oauth2"
)

// ErrNoCredential is returned by the token source when no slot holds a credential.
var ErrNoCredential = errors.New("session: no credential")

type tokenSource struct {
	store *Store
}

// TokenSource exposes the store's credential resolution as an
// oauth2.TokenSource. The credential is resolved again on every call so a
// login or logout is picked up by the next request.
func (s *Store) TokenSource() oauth2.TokenSource {
	return tokenSource{store: s}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	token := ts.store.ResolveCredential()
	if token == "" {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
