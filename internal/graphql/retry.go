package graphql

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// shouldRetry decides whether a failed attempt is repeated:
//   - network errors and timeouts -> yes
//   - caller cancellation -> no
//   - 429, 500, 502, 503, 504 -> yes
//   - other statuses -> no (client errors are not transient)
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return false
	}
	return retryableStatus(resp.StatusCode())
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
