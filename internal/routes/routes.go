// Package routes classifies storefront paths and builds the redirect targets
// shared by the website gatekeeper and the client runtime.
package routes

import (
	"net/url"
	"path"
	"strings"

	"github.com/wolfeidau/storefront/internal/models"
)

const (
	Home     = "/"
	Login    = "/login"
	Register = "/register"

	// AdminLanding is where administrators always end up.
	AdminLanding = "/admin"
	// CustomerLanding is the default destination for everyone else.
	CustomerLanding = "/dashboard"

	// RedirectParam carries the original destination to the login page.
	RedirectParam = "redirect"
)

var publicPaths = map[string]struct{}{
	Home:     {},
	Login:    {},
	Register: {},
}

var assetPrefixes = []string{"/static/", "/assets/"}

var assetFiles = map[string]struct{}{
	"/favicon.ico": {},
	"/robots.txt":  {},
	"/sitemap.xml": {},
}

var assetExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {}, ".png": {}, ".jpg": {}, ".jpeg": {},
	".gif": {}, ".svg": {}, ".ico": {}, ".webp": {}, ".woff": {}, ".woff2": {},
	".ttf": {},
}

// Normalize cleans a request path so "/login/" and "/login" classify the same.
func Normalize(p string) string {
	if p == "" {
		return Home
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// IsStaticAsset reports whether the path is excluded from route guarding.
func IsStaticAsset(p string) bool {
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	p = Normalize(pathOf(p))
	if _, ok := assetFiles[p]; ok {
		return true
	}

	_, ok := assetExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// IsPublic reports whether the path is reachable without a session. A query
// string is ignored.
func IsPublic(p string) bool {
	_, ok := publicPaths[Normalize(pathOf(p))]
	return ok
}

// IsProtected reports whether the path requires a session. Every path that is
// neither public nor a static asset is protected.
func IsProtected(p string) bool {
	return !IsStaticAsset(p) && !IsPublic(p)
}

// IsAdmin reports whether the path belongs to the administrator area.
func IsAdmin(p string) bool {
	p = Normalize(p)
	return p == AdminLanding || strings.HasPrefix(p, AdminLanding+"/")
}

// Landing returns the role based default destination.
func Landing(u *models.User) string {
	if u.IsAdmin() {
		return AdminLanding
	}
	return CustomerLanding
}

// LoginURL builds the login location carrying the return path. Return paths
// that are public or not same-origin are dropped.
func LoginURL(returnPath string) string {
	safe, ok := SafeReturnPath(returnPath)
	if !ok || IsPublic(pathOf(safe)) {
		return Login
	}
	return Login + "?" + RedirectParam + "=" + escapeReturnPath(safe)
}

// ReturnPathFrom extracts the return path from a login URL query.
func ReturnPathFrom(query url.Values) (string, bool) {
	return SafeReturnPath(query.Get(RedirectParam))
}

// SafeReturnPath accepts only same-origin absolute paths, so a crafted
// redirect parameter can never send the user to another host.
func SafeReturnPath(p string) (string, bool) {
	if p == "" || !strings.HasPrefix(p, "/") {
		return "", false
	}
	if strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "", false
	}

	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}

	uri := Normalize(u.Path)
	if u.RawQuery != "" {
		uri += "?" + u.RawQuery
	}
	return uri, true
}

// Resolve is the page level authorization check that runs after the
// gatekeeper admitted a navigation. It returns the location to redirect to,
// or false when the session may stay on target.
func Resolve(s models.Session, target string) (string, bool) {
	p := pathOf(target)

	switch {
	case IsStaticAsset(p):
		return "", false
	case IsPublic(p):
		if s.IsAuthenticated() && (Normalize(p) == Login || Normalize(p) == Register) {
			return Landing(s.User), true
		}
		return "", false
	case !s.IsAuthenticated():
		return LoginURL(target), true
	case s.IsAdmin() && !IsAdmin(p):
		return AdminLanding, true
	case !s.IsAdmin() && IsAdmin(p):
		return Landing(s.User), true
	}

	return "", false
}

// PostLoginDestination picks where to go after a successful login: the
// redirect parameter, then the saved destination, then the role default.
// A candidate outside the user's area is skipped, so administrators always
// end up in the admin area.
func PostLoginDestination(u *models.User, redirectParam, saved string) string {
	for _, candidate := range []string{redirectParam, saved} {
		p, ok := SafeReturnPath(candidate)
		if !ok || IsPublic(p) || u.IsAdmin() != IsAdmin(pathOf(p)) {
			continue
		}
		return p
	}
	return Landing(u)
}

func pathOf(target string) string {
	p, _, _ := strings.Cut(target, "?")
	return p
}

func escapeReturnPath(p string) string {
	return strings.ReplaceAll(url.QueryEscape(p), "%2F", "/")
}
