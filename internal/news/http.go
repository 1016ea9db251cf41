package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shanehull/mikecast/internal/retry"
)

const (
	maxResponseBytes = 10 << 20
	userAgent        = "Mozilla/5.0 (compatible; MikeCast/1.0)"
)

// fetcher performs GETs with retries. It is shared by the source clients.
type fetcher struct {
	client *http.Client
	policy retry.Policy
}

func newFetcher(client *http.Client, policy retry.Policy) fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return fetcher{client: client, policy: policy}
}

func (f fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, f.policy, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				uerr.URL = redact(req.URL)
			}
			return fmt.Errorf("failed to fetch URL: %w", err)
		}
		defer resp.Body.Close()

		// Keys travel in the query string; keep them out of errors and logs.
		if err := retry.CheckStatus(redact(req.URL), resp.StatusCode); err != nil {
			return err
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		return nil
	})
	return body, err
}
