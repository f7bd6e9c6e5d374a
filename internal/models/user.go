package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Roles understood by the storefront. The external API may return others;
// any role that is not RoleAdmin is treated as a regular customer.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// ErrInvalidUser is returned when an identity record is missing the fields
// the storefront relies on for routing decisions.
var ErrInvalidUser = errors.New("invalid user")

// User is the identity record returned by the external API on login.
// Only ID and Role are interpreted; the remaining fields are display data.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
}

// IsAdmin returns true if the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

// DisplayName returns a human readable name, falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}

	return u.Email
}

// Validate checks that the identity can be trusted for routing decisions.
func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: missing user", ErrInvalidUser)
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidUser)
	}
	if strings.TrimSpace(u.Role) == "" {
		return fmt.Errorf("%w: missing role", ErrInvalidUser)
	}
	return nil
}

// Clone returns a copy of the user so callers cannot mutate shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// UnmarshalUser decodes and validates an identity record.
func UnmarshalUser(data []byte) (*User, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidUser)
	}

	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return &u, nil
}
