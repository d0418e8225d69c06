package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"
	"time"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// retryDelay waits as long as Telegram flood control asks, otherwise
// attempt times backoff.
func retryDelay(err error, backoff time.Duration, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return backoff * time.Duration(attempt)
}

// redact masks bot tokens that net/http embeds in request URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

// errorKinds is checked in order; the first match names the failure in logs.
var errorKinds = []struct {
	kind  string
	match func(error) bool
}{
	{"timeout", isTimeout},
	{"dns", func(err error) bool {
		var dns *net.DNSError
		return errors.As(err, &dns)
	}},
	{"dial", func(err error) bool {
		var op *net.OpError
		return errors.As(err, &op) && op.Op == "dial"
	}},
	{"tls", func(err error) bool {
		var alert tls.AlertError
		return errors.As(err, &alert)
	}},
	{"http_5xx", func(err error) bool { return apiStatus(err) >= 500 }},
	{"flood", func(err error) bool { return apiStatus(err) == http.StatusTooManyRequests }},
	{"http_4xx", func(err error) bool { return apiStatus(err) >= 400 }},
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if k.match(err) {
			return k.kind
		}
	}
	return "unknown"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// apiStatus maps telebot error types onto the HTTP status Telegram answered.
func apiStatus(err error) int {
	var api *tele.Error
	if errors.As(err, &api) {
		return api.Code
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return http.StatusTooManyRequests
	}
	var group tele.GroupError
	if errors.As(err, &group) {
		return http.StatusBadRequest
	}
	return 0
}
