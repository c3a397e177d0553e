package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperr "MarketPulse/internal/errors"
)

const defaultTimeout = 30 * time.Second

// NewHTTPClient builds the client shared by the REST adapters, with optional
// proxy support.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// StatusError is a non-200 provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

// statusCode maps an HTTP status to its error code: timeouts, throttling and
// server errors are transient, any other 4xx is a rejection.
func statusCode(status int) apperr.ErrorCode {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return apperr.ErrCodeTransientFetchFailure
	default:
		return apperr.ErrCodeProviderRejected
	}
}

// getBody performs a GET and returns the body. Responses whose status is in
// passthrough are returned as-is so the normalizer can read a provider's
// "not found" body.
func getBody(ctx context.Context, client *http.Client, provider, endpoint string, header http.Header, passthrough ...int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrCodeInvalidRequest, err, "%s request", provider)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.Wrapf(apperr.ErrCodeTransientFetchFailure, err, "%s fetch", provider)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrapf(apperr.ErrCodeTransientFetchFailure, err, "%s read body", provider)
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	for _, s := range passthrough {
		if resp.StatusCode == s {
			return body, nil
		}
	}
	statusErr := &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	return nil, apperr.Wrap(statusCode(resp.StatusCode), provider+" request failed", statusErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
