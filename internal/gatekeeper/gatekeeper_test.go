package gatekeeper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/storefront/internal/cookie"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		token    string
		strict   bool
		expected Result
	}{
		{name: "home", method: http.MethodGet, target: "/", expected: Result{Decision: Allow, Reason: ReasonPublic}},
		{name: "login post", method: http.MethodPost, target: "/login", expected: Result{Decision: Allow, Reason: ReasonPublic}},
		{name: "register", method: http.MethodGet, target: "/register", expected: Result{Decision: Allow, Reason: ReasonPublic}},
		{name: "static asset", method: http.MethodGet, target: "/static/app.css", expected: Result{Decision: Allow, Reason: ReasonStaticAsset}},
		{name: "favicon", method: http.MethodGet, target: "/favicon.ico", expected: Result{Decision: Allow, Reason: ReasonStaticAsset}},
		{name: "protected with cookie", method: http.MethodGet, target: "/orders", token: "abc123", expected: Result{Decision: Allow, Reason: ReasonCookie}},
		{name: "protected post with cookie", method: http.MethodPost, target: "/orders", token: "abc123", expected: Result{Decision: Allow, Reason: ReasonCookie}},
		{name: "protected get without cookie", method: http.MethodGet, target: "/orders", expected: Result{Decision: Allow, Reason: ReasonUnverified}},
		{name: "protected head without cookie", method: http.MethodHead, target: "/orders", expected: Result{Decision: Allow, Reason: ReasonUnverified}},
		{name: "protected options without cookie", method: http.MethodOptions, target: "/orders", expected: Result{Decision: Allow, Reason: ReasonUnverified}},
		{
			name: "protected post without cookie", method: http.MethodPost, target: "/orders",
			expected: Result{Decision: Redirect, Reason: ReasonNoCookie, Location: "/login?redirect=/orders"},
		},
		{
			name: "protected delete keeps query", method: http.MethodDelete, target: "/addresses?id=7",
			expected: Result{Decision: Redirect, Reason: ReasonNoCookie, Location: "/login?redirect=/addresses%3Fid%3D7"},
		},
		{
			name: "strict get without cookie", method: http.MethodGet, target: "/cars/new", strict: true,
			expected: Result{Decision: Redirect, Reason: ReasonNoCookie, Location: "/login?redirect=/cars/new"},
		},
		{name: "strict public", method: http.MethodGet, target: "/", strict: true, expected: Result{Decision: Allow, Reason: ReasonPublic}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				r.AddCookie(cookie.New(tt.token))
			}

			var opts []Option
			if tt.strict {
				opts = append(opts, WithStrict())
			}

			require.Equal(t, tt.expected, Evaluate(r, opts...))
		})
	}
}

func TestMiddleware(t *testing.T) {
	var reached int
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("get without cookie is served uncached", func(t *testing.T) {
		reached = 0
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Equal(t, 1, reached)
	})

	t.Run("post without cookie redirects before the handler", func(t *testing.T) {
		reached = 0
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("qty=1")))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?redirect=/orders", rec.Header().Get("Location"))
		assert.Equal(t, 0, reached)
	})

	t.Run("post with cookie reaches the handler", func(t *testing.T) {
		reached = 0
		r := httptest.NewRequest(http.MethodPost, "/orders", nil)
		r.AddCookie(cookie.New("abc123"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Cache-Control"))
		assert.Equal(t, 1, reached)
	})

	t.Run("strict", func(t *testing.T) {
		strict := Middleware(WithStrict())(http.NotFoundHandler())
		rec := httptest.NewRecorder()
		strict.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?redirect=/orders/42", rec.Header().Get("Location"))
	})
}

func TestFromContext(t *testing.T) {
	var got Result
	var ok bool
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.True(t, ok)
	assert.Equal(t, ReasonUnverified, got.Reason)

	_, ok = FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
