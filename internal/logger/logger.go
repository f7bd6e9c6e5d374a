package logger

import (
	"crypto/sha256"
	"net/http"
	"os"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	httpmiddleware "github.com/wolfeidau/storefront/internal/http"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// Requests logs every request once it completes. The logger is also attached
// to the request context so handlers can use zerolog.Ctx or hlog.FromRequest.
func Requests(logger zerolog.Logger) func(http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		ev := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Error()
		}

		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})

	return func(next http.Handler) http.Handler {
		enrich := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := zerolog.Ctx(r.Context()).With().
				Str("request_id", httpmiddleware.RequestIDFromContext(r.Context())).
				Str("client_ip", httpmiddleware.ClientIPFromContext(r.Context())).
				Logger()
			access(next).ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
		})

		return hlog.NewHandler(logger)(enrich)
	}
}

// Fingerprint identifies a bearer credential in logs without revealing it.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return base58.Encode(sum[:6])
}
