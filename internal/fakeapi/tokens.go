package fakeapi

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer identifies tokens minted by the API double.
const Issuer = "storefront-fake-api"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// Claims are carried by every bearer token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// tokenIssuer signs and verifies ES256 bearer tokens and tracks revocations
// until the revoked token would have expired anyway.
type tokenIssuer struct {
	key *ecdsa.PrivateKey
	ttl time.Duration

	mu      sync.RWMutex
	revoked map[string]time.Time
}

func newTokenIssuer(ttl time.Duration) (*tokenIssuer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	return &tokenIssuer{key: key, ttl: ttl, revoked: make(map[string]time.Time)}, nil
}

func (ti *tokenIssuer) sign(userID, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (ti *tokenIssuer) verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return &ti.key.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	ti.mu.RLock()
	_, revoked := ti.revoked[claims.ID]
	ti.mu.RUnlock()
	if revoked {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

func (ti *tokenIssuer) revoke(claims *Claims) {
	ti.mu.Lock()
	defer ti.mu.Unlock()

	now := time.Now()
	for id, exp := range ti.revoked {
		if exp.Before(now) {
			delete(ti.revoked, id)
		}
	}

	ti.revoked[claims.ID] = claims.ExpiresAt.Time
}
