package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher sets the asynchronous sender used by the Send helpers.
// Messages are keyed by chat so one chat is always served by one worker.
// With a nil dispatcher messages are sent inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	var key int64
	if chat := c.Chat(); chat != nil {
		key = chat.ID
	}
	err := disp.EnqueueKey(ctx, key, action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.Any("err", err),
		)
		return run()
	}
	return err
}

// SendText sends plain text to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	return SendTexts(c, []string{text}, firstOpts(opts))
}

// SendTexts sends each text as its own message, in order, as one dispatcher
// job. opts apply to the last message only so a keyboard arrives together
// with the final prompt. A retried job resumes from the first unsent message.
func SendTexts(c tele.Context, texts []string, opts *tele.SendOptions) error {
	if len(texts) == 0 {
		return nil
	}
	texts = append([]string(nil), texts...)
	next := 0
	return sendAsync(c, "send.text", "sendMessage", func() error {
		for ; next < len(texts); next++ {
			var err error
			if next == len(texts)-1 && opts != nil {
				err = c.Send(texts[next], opts)
			} else {
				err = c.Send(texts[next])
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func firstOpts(opts []*tele.SendOptions) *tele.SendOptions {
	if len(opts) == 0 {
		return nil
	}
	return opts[0]
}
