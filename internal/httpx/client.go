// Package httpx owns the shared HTTP client used for all external calls.
package httpx

import (
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

var client = &http.Client{Timeout: defaultTimeout}

// Configure sets the external request timeout. Non-positive values keep the
// default. Returns the timeout in effect.
func Configure(seconds int) time.Duration {
	if seconds > 0 {
		client.Timeout = time.Duration(seconds) * time.Second
	}
	return client.Timeout
}

// Client returns the shared external HTTP client.
func Client() *http.Client {
	return client
}
