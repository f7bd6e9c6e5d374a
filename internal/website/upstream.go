package website

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// WaitForAPI polls the API health endpoint until it answers 200 or maxWait
// elapses. A 4xx answer other than 429 is permanent.
func WaitForAPI(ctx context.Context, apiURL string, maxWait time.Duration, log zerolog.Logger) error {
	if apiURL == "" {
		return errors.New("api url is required")
	}

	target := strings.TrimSuffix(apiURL, "/") + "/healthz"
	hc := &http.Client{Timeout: 5 * time.Second}

	op := func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return 0, backoff.Permanent(err)
		}

		resp, err := hc.Do(req)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.StatusCode, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
			return resp.StatusCode, backoff.Permanent(fmt.Errorf("api health check returned %d", resp.StatusCode))
		}
		return resp.StatusCode, fmt.Errorf("api health check returned %d", resp.StatusCode)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(maxWait),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Info().Err(err).Dur("retry_in", next).Str("api", apiURL).Msg("waiting for api")
		}),
	)
	if err != nil {
		return fmt.Errorf("api at %s not ready: %w", apiURL, err)
	}

	log.Info().Str("api", apiURL).Msg("api ready")
	return nil
}
