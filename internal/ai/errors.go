package ai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/shanehull/mikecast/internal/retry"
)

// retryable marks rejected requests and cancelled runs as permanent. Rate
// limits, 5xx responses and network errors stay retryable.
func retryable(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return retry.Permanent(err)
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return retry.ByStatus(gErr.Code, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retry.ByStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retry.ByStatus(reqErr.HTTPStatusCode, err)
	}
	return err
}
