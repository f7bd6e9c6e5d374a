package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// NewCachingHTTPClient creates an HTTP client honouring Cache-Control on
// catalog responses. Responses are kept in cacheDir, or in memory when
// cacheDir is empty.
func NewCachingHTTPClient(cacheDir string, base http.RoundTripper, timeout time.Duration) *http.Client {
	var cache httpcache.Cache = httpcache.NewMemoryCache()
	if cacheDir != "" {
		// persists across restarts
		cache = diskcache.New(cacheDir)
	}

	transport := httpcache.NewTransport(cache)
	transport.Transport = base

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
