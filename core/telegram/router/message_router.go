package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/quizbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions configures handlers for non-text messages.
type TextOptions struct {
	// Unsupported answers stickers, photos, documents and other media.
	Unsupported tele.HandlerFunc
}

// TextRoutes routes plain text. A slash-prefixed text naming a registered
// command (for example an alias) goes to that command; quiz answers and
// everything else go to the registry's text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if reg == nil {
			logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
			return nil
		}
		if msg := c.Text(); strings.HasPrefix(msg, "/") {
			if key, cmd, ok := reg.LookupCommand(msg); ok {
				return handleWithSummary(c, normalizeHandlerName(key), cmd.Handler)
			}
		}
		if fb := reg.TextFallback(); fb != nil {
			return handleWithSummary(c, "text", fb)
		}
		logHandlerSummary(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	if opts.Unsupported != nil {
		media := func(c tele.Context) error {
			return handleWithSummary(c, "unsupported", opts.Unsupported)
		}
		for _, ep := range []string{tele.OnDocument, tele.OnPhoto, tele.OnSticker, tele.OnVoice, tele.OnVideo} {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: media})
		}
	}
	return routes
}
