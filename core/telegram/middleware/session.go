package middleware

import (
	"fmt"
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/session"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const sessionKey = "quiz_session"

// SessionOptions configures SessionMiddleware.
type SessionOptions struct {
	Store session.Store
	// Locks serialises updates of one user. Nil allocates a private set.
	Locks *session.UserLocks
}

// SessionMiddleware loads the sender's session and holds the per-user lock
// until the handler returns, so load, handling and save never interleave for
// one user. Updates without a sender pass through without a session.
func SessionMiddleware(opts SessionOptions) tele.MiddlewareFunc {
	locks := opts.Locks
	if locks == nil {
		locks = session.NewUserLocks()
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Store == nil {
				return next(c)
			}
			unlock := locks.Lock(user.ID)
			defer unlock()

			ctx := tghelpers.BuildContext(c)
			s, err := session.Open(ctx, opts.Store, user.ID)
			if err != nil {
				logger.Error(ctx, "session", "session.load",
					slog.String("status", "fail"),
					slog.Any("err", err),
				)
				return fmt.Errorf("telegram: load session: %w", err)
			}
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// SessionFrom returns the session loaded by SessionMiddleware.
func SessionFrom(c tele.Context) (*session.Session, bool) {
	s, ok := c.Get(sessionKey).(*session.Session)
	return s, ok && s != nil
}
