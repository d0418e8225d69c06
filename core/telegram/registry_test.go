package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/quizbot/core/config"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Start the quiz"}))
	require.NoError(t, reg.RegisterCommand("/top", Command{Handler: noop, Description: "Leaderboard", Aliases: []string{"leaders"}}))
	require.NoError(t, reg.RegisterCommand("/reset", Command{Handler: noop, Description: "Reset", Hidden: true}))

	assert.Error(t, reg.RegisterCommand("/top", Command{Handler: noop, Description: "dup"}))
	assert.Error(t, reg.RegisterCommand("top", Command{Handler: noop, Description: "no slash"}))
	assert.Error(t, reg.RegisterCommand("/x", Command{Description: "no handler"}))

	visible := reg.ListCommands(true)
	require.Len(t, visible, 2)
	assert.Equal(t, "start", visible[0].Text)
	assert.Equal(t, "top", visible[1].Text)
	assert.Len(t, reg.ListCommands(false), 3)

	for _, text := range []string{"/top", "top", "/top@quizbot", "/top 5", "/leaders"} {
		name, _, ok := reg.LookupCommand(text)
		assert.True(t, ok, text)
		assert.Equal(t, "/top", name, text)
	}
	_, _, ok := reg.LookupCommand("/missing")
	assert.False(t, ok)
}

func TestBuildPoller(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.LongPollTimeoutSeconds = 25
	lp, ok := BuildPoller(cfg).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 25*time.Second, lp.Timeout)

	lp, ok = BuildPoller(nil).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)

	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook = coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}
	hook, ok := BuildPoller(cfg).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", hook.Listen)
	assert.Equal(t, "https://example.org/hook", hook.Endpoint.PublicURL)
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, 0, len(mws))
		for _, mw := range mws {
			out = append(out, mw.Name)
		}
		return out
	}
	cfg := &coreconfig.Config{}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(cfg, nil)))
	cfg.RateLimit.IntervalMS = 500
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"}, names(DefaultMiddlewares(cfg, nil)))
}

func TestBuildHTTPClientTimeout(t *testing.T) {
	assert.Equal(t, clientTimeout, BuildHTTPClient(10*time.Second).Timeout)
	assert.Equal(t, 70*time.Second, BuildHTTPClient(60*time.Second).Timeout)
}

func TestDispatcherOptions(t *testing.T) {
	opts := DispatcherOptions(coreconfig.SenderConfig{QueueSize: 10, Workers: 2, MaxRetries: 1, RetryBackoffMS: 250})
	assert.Equal(t, 10, opts.QueueSize)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 250*time.Millisecond, opts.RetryBackoff)
}
