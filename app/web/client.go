package web

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxErrorBodyLength = 500

// NewClient returns a resty client carrying the process-wide user agent and
// timeout. Callers own the returned client and may set a base URL or token.
func NewClient(userAgent string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	return client
}

// StatusError formats a non-2xx response as "HTTP <code>: <body>".
func StatusError(res *resty.Response) error {
	body := strings.TrimSpace(string(res.Body()))
	if runes := []rune(body); len(runes) > maxErrorBodyLength {
		body = string(runes[:maxErrorBodyLength]) + "..."
	}
	if body == "" {
		return fmt.Errorf("HTTP %d", res.StatusCode())
	}
	return fmt.Errorf("HTTP %d: %s", res.StatusCode(), body)
}
