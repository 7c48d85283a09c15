// Package netx builds the retrying HTTP clients shared by the wallet and
// forum adapters.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fundwatch/internal/logging"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger adapts logging.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	inner logging.Logger
}

func (l leveledLogger) Error(msg string, args ...any) {
	l.inner.Error(context.Background(), msg, args...)
}

func (l leveledLogger) Info(msg string, args ...any) {
	l.inner.Debug(context.Background(), msg, args...)
}

func (l leveledLogger) Warn(msg string, args ...any) {
	l.inner.Warn(context.Background(), msg, args...)
}

func (l leveledLogger) Debug(msg string, args ...any) {
	l.inner.Debug(context.Background(), msg, args...)
}

// NewRetryableClient returns a client retrying transport errors and 5xx
// responses up to retries times with linear jittered backoff.
func NewRetryableClient(retries int, delay time.Duration, logger logging.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.RetryWaitMin = delay
	c.RetryWaitMax = 2 * delay
	c.Backoff = retryablehttp.LinearJitterBackoff
	c.CheckRetry = retryablehttp.DefaultRetryPolicy
	c.ErrorHandler = lastResponse
	c.Logger = leveledLogger{inner: logger}
	return c
}

// lastResponse hands the final response back to the caller once retries
// are exhausted, so status mapping stays with the adapter.
func lastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// ReadBody drains and closes resp.Body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return data, nil
}
