package website

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/storefront/internal/cookie"
)

func newHandler(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	site, err := New(cfg)
	require.NoError(t, err)
	h, err := site.Handler()
	require.NoError(t, err)
	return h
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader("qty=1")
	}
	r := httptest.NewRequest(method, target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		r.AddCookie(cookie.New(token))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestPages(t *testing.T) {
	h := newHandler(t, Config{APIURL: "http://api.test"})

	tests := []struct {
		name         string
		method       string
		target       string
		token        string
		status       int
		location     string
		noStore      bool
		bodyContains string
	}{
		{name: "home", method: http.MethodGet, target: "/", status: http.StatusOK, bodyContains: "Fuel and EV charging"},
		{name: "login", method: http.MethodGet, target: "/login?redirect=/orders", status: http.StatusOK, bodyContains: "Log in"},
		{name: "protected get with cookie", method: http.MethodGet, target: "/orders", token: "abc123", status: http.StatusOK, bodyContains: "<h1>Orders</h1>"},
		{name: "protected get without cookie", method: http.MethodGet, target: "/orders", status: http.StatusOK, noStore: true, bodyContains: `data-session="unverified"`},
		{name: "order detail", method: http.MethodGet, target: "/orders/o42", token: "abc123", status: http.StatusOK, bodyContains: `"id":"o42"`},
		{name: "admin shell", method: http.MethodGet, target: "/admin/products", token: "abc123", status: http.StatusOK, bodyContains: "Products"},
		{name: "protected post without cookie", method: http.MethodPost, target: "/orders", status: http.StatusSeeOther, location: "/login?redirect=/orders"},
		{name: "protected post with cookie", method: http.MethodPost, target: "/cars/new", token: "abc123", status: http.StatusSeeOther, location: "/cars/new"},
		{name: "unknown without cookie", method: http.MethodGet, target: "/nope", status: http.StatusNotFound, noStore: true},
		{name: "static asset", method: http.MethodGet, target: "/static/app.css", status: http.StatusOK, bodyContains: "font-family"},
		{name: "robots", method: http.MethodGet, target: "/robots.txt", status: http.StatusOK, bodyContains: "Disallow: /admin"},
		{name: "healthz", method: http.MethodGet, target: "/healthz", status: http.StatusOK, noStore: true, bodyContains: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target, tt.token)

			require.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
			if tt.noStore {
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			} else {
				assert.Empty(t, rec.Header().Get("Cache-Control"))
			}
			if tt.bodyContains != "" {
				assert.Contains(t, rec.Body.String(), tt.bodyContains)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestPages_unverifiedShellCarriesNoData(t *testing.T) {
	h := newHandler(t, Config{APIURL: "http://api.test"})

	rec := serve(h, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"apiURL":"http://api.test"`)
	assert.Contains(t, rec.Body.String(), "data-protected")
}

func TestStrict(t *testing.T) {
	h := newHandler(t, Config{Strict: true})

	rec := serve(h, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirect=/orders", rec.Header().Get("Location"))

	rec = serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout(t *testing.T) {
	h := newHandler(t, Config{})

	rec := serve(h, http.MethodPost, "/logout", "abc123")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	setCookie := rec.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(setCookie, "token=;"), setCookie)
	assert.Contains(t, setCookie, "Max-Age=0")
	assert.Contains(t, setCookie, "Path=/")
}

func TestCrossOriginPost(t *testing.T) {
	h := newHandler(t, Config{})

	r := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("qty=1"))
	r.AddCookie(cookie.New("abc123"))
	r.Header.Set("Sec-Fetch-Site", "cross-site")
	r.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWaitForAPI(t *testing.T) {
	t.Run("ready after retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		require.NoError(t, WaitForAPI(context.Background(), srv.URL, 10*time.Second, zerolog.Nop()))
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("permanent failure", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		require.Error(t, WaitForAPI(context.Background(), srv.URL, 10*time.Second, zerolog.Nop()))
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("gives up", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		require.Error(t, WaitForAPI(context.Background(), srv.URL, 300*time.Millisecond, zerolog.Nop()))
	})
}
