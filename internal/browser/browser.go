// Package browser drives the website the way the storefront's page runtime
// does: in-app transitions and full document loads over one cookie jar.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TransitionHeader marks requests made for in-app transitions.
const TransitionHeader = "X-Storefront-Transition"

const (
	TransitionClient   = "client"
	TransitionDocument = "document"
)

// maxBody bounds how much of a page is kept.
const maxBody = 1 << 20

// Page is the document the browser last arrived at.
type Page struct {
	// Location is the path and query after redirects.
	Location   string
	Status     int
	Header     http.Header
	Body       []byte
	Transition string
}

// Browser implements navigation.Router and navigation.Loader.
type Browser struct {
	origin *url.URL
	http   *http.Client
	log    zerolog.Logger

	mu   sync.RWMutex
	page Page
}

// Option configures a Browser.
type Option func(*Browser)

func WithLogger(log zerolog.Logger) Option {
	return func(b *Browser) {
		b.log = log
	}
}

// WithTransport sets the round tripper used to reach the website.
func WithTransport(rt http.RoundTripper) Option {
	return func(b *Browser) {
		b.http.Transport = rt
	}
}

// New creates a browser for the website at origin sharing jar.
func New(origin string, jar http.CookieJar, opts ...Option) (*Browser, error) {
	u, err := url.Parse(strings.TrimSuffix(origin, "/"))
	if err != nil {
		return nil, fmt.Errorf("browser: invalid origin: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("browser: origin %q must be absolute", origin)
	}

	b := &Browser{
		origin: u,
		http:   &http.Client{Jar: jar, Timeout: 30 * time.Second},
		log:    zerolog.Nop(),
		page:   Page{Location: "/"},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Origin returns the website origin.
func (b *Browser) Origin() *url.URL {
	u := *b.origin
	return &u
}

// Jar returns the cookie jar shared with the website.
func (b *Browser) Jar() http.CookieJar {
	return b.http.Jar
}

// Push performs an in-app transition to dest.
func (b *Browser) Push(ctx context.Context, dest string) error {
	return b.fetch(ctx, http.MethodGet, dest, nil, TransitionClient)
}

// Load performs a full document navigation to dest.
func (b *Browser) Load(ctx context.Context, dest string) error {
	return b.fetch(ctx, http.MethodGet, dest, nil, TransitionDocument)
}

// Submit posts a form to dest as a document navigation.
func (b *Browser) Submit(ctx context.Context, dest string, form url.Values) error {
	return b.fetch(ctx, http.MethodPost, dest, form, TransitionDocument)
}

// Location returns the path and query of the current page.
func (b *Browser) Location() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page.Location
}

// Path returns the path of the current page.
func (b *Browser) Path() string {
	p, _, _ := strings.Cut(b.Location(), "?")
	return p
}

// Page returns a copy of the current page.
func (b *Browser) Page() Page {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p := b.page
	p.Header = p.Header.Clone()
	p.Body = append([]byte(nil), p.Body...)
	return p
}

func (b *Browser) fetch(ctx context.Context, method, dest string, form url.Values, transition string) error {
	target, err := b.resolve(dest)
	if err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if transition == TransitionClient {
		req.Header.Set(TransitionHeader, TransitionClient)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", b.origin.Scheme+"://"+b.origin.Host)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, dest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dest, err)
	}

	// the final request after any redirects
	location := resp.Request.URL.RequestURI()

	b.mu.Lock()
	b.page = Page{
		Location:   location,
		Status:     resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
		Transition: transition,
	}
	b.mu.Unlock()

	b.log.Debug().
		Str("method", method).
		Str("dest", dest).
		Str("location", location).
		Str("transition", transition).
		Int("status", resp.StatusCode).
		Msg("navigated")

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s %s: server returned %d", method, dest, resp.StatusCode)
	}

	return nil
}

func (b *Browser) resolve(dest string) (*url.URL, error) {
	ref, err := url.Parse(dest)
	if err != nil {
		return nil, fmt.Errorf("browser: invalid destination %q: %w", dest, err)
	}
	if ref.IsAbs() && ref.Host != b.origin.Host {
		return nil, fmt.Errorf("browser: destination %q is not on %s", dest, b.origin.Host)
	}
	return b.origin.ResolveReference(ref), nil
}
