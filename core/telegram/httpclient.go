package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/quizbot/core/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	keepAlive        = 30 * time.Second
	tlsHandshake     = 5 * time.Second
	idleConnTimeout  = 30 * time.Second
	clientTimeout    = 30 * time.Second
	retryAttempts    = 3
	retryBackoffStep = 2 * time.Second
)

// BuildHTTPClient returns the client used for Telegram Bot API calls. Long
// polling holds the request open, so the response header timeout stays unset
// and the client timeout must exceed the poll timeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ExpectContinueTimeout: time.Second,
	}
	timeout := clientTimeout
	if pollTimeout+10*time.Second > timeout {
		timeout = pollTimeout + 10*time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			base:     transport,
			attempts: retryAttempts,
			backoff:  retryBackoffStep,
		},
	}
}

// retryTransport repeats requests that failed before reaching Telegram.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for attempt := 1; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if err == nil || attempt >= t.attempts || !netutil.ShouldRetry(err) {
			return resp, err
		}
		if req.Body != nil {
			if req.GetBody == nil {
				return resp, err
			}
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, err
			}
			req = req.Clone(req.Context())
			req.Body = body
		}

		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
}
