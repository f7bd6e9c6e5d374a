// Package cookie mirrors the bearer credential into the cookie the website
// gatekeeper reads. The cookie is the only session state the gatekeeper sees.
package cookie

import (
	"net/http"
	"time"
)

const (
	// Name of the credential cookie.
	Name = "token"
	Path = "/"
	// MaxAge is seven days in seconds.
	MaxAge = int(7 * 24 * time.Hour / time.Second)
)

// New returns the credential cookie carrying token verbatim.
func New(token string) *http.Cookie {
	return &http.Cookie{
		Name:     Name,
		Value:    token,
		Path:     Path,
		MaxAge:   MaxAge,
		SameSite: http.SameSiteLaxMode,
	}
}

// Expired returns a cookie that removes the credential cookie.
func Expired() *http.Cookie {
	return &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest returns the credential cookie value of r. An empty cookie
// counts as absent.
func FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
