// Package storage provides the key/value slots the client runtime keeps its
// session in. A durable Storage survives restarts, a session scoped Storage
// lives as long as the process.
package storage

import "errors"

// Durable slot keys.
const (
	KeyToken     = "token"
	KeyUser      = "user"
	KeyAuthState = "auth-storage"
)

// KeyRedirectAfterLogin is the session scoped slot holding the destination a
// user was sent away from before logging in.
const KeyRedirectAfterLogin = "redirectAfterLogin"

var (
	// ErrNotFound is returned when a slot holds no value.
	ErrNotFound = errors.New("storage: key not found")

	// ErrUnavailable is returned by every operation of a storage that cannot
	// be used, for example when the user disabled persistence.
	ErrUnavailable = errors.New("storage: unavailable")
)

// Storage is a string keyed slot store.
type Storage interface {
	// Get returns the value of key or ErrNotFound.
	Get(key string) (string, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// Lookup returns the value of key, treating any failure as an empty slot.
func Lookup(s Storage, key string) string {
	if s == nil {
		return ""
	}
	v, err := s.Get(key)
	if err != nil {
		return ""
	}
	return v
}

// Take returns the value of key and removes it.
func Take(s Storage, key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return v, s.Remove(key)
}

// Unavailable is a Storage that fails every operation with ErrUnavailable.
type Unavailable struct{}

var _ Storage = Unavailable{}

func (Unavailable) Get(string) (string, error) { return "", ErrUnavailable }
func (Unavailable) Set(string, string) error   { return ErrUnavailable }
func (Unavailable) Remove(string) error        { return ErrUnavailable }
