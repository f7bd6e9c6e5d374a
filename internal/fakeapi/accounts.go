package fakeapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wolfeidau/storefront/internal/models"
)

var errBadCredentials = errors.New("invalid email or password")

// Seed is an account created when the API starts.
type Seed struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
}

// DefaultSeeds are the development accounts.
func DefaultSeeds() []Seed {
	return []Seed{
		{Email: "admin@storefront.test", Password: "admin-password", Role: models.RoleAdmin, FirstName: "Ops", LastName: "Admin"},
		{Email: "customer@storefront.test", Password: "customer-password", Role: models.RoleCustomer, FirstName: "Jo", LastName: "Driver"},
	}
}

type account struct {
	user models.User
	hash []byte
}

type accounts struct {
	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[string]*account
}

func newAccounts(seeds []Seed, cost int) (*accounts, error) {
	a := &accounts{byEmail: map[string]*account{}, byID: map[string]*account{}}

	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", s.Email, err)
		}

		acct := &account{
			user: models.User{
				ID:        uuid.NewString(),
				Email:     strings.ToLower(s.Email),
				FirstName: s.FirstName,
				LastName:  s.LastName,
				Role:      s.Role,
			},
			hash: hash,
		}
		if err := acct.user.Validate(); err != nil {
			return nil, fmt.Errorf("invalid seed %s: %w", s.Email, err)
		}

		a.byEmail[acct.user.Email] = acct
		a.byID[acct.user.ID] = acct
	}

	return a, nil
}

func (a *accounts) authenticate(email, password string) (models.User, error) {
	a.mu.RLock()
	acct, ok := a.byEmail[strings.ToLower(strings.TrimSpace(email))]
	a.mu.RUnlock()

	if !ok {
		return models.User{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return models.User{}, errBadCredentials
	}
	return acct.user, nil
}

func (a *accounts) get(id string) (models.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acct, ok := a.byID[id]
	if !ok {
		return models.User{}, false
	}
	return acct.user, true
}

func (a *accounts) lookupEmail(email string) (models.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acct, ok := a.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, false
	}
	return acct.user, true
}
