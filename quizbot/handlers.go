package quizbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/quiz"
	"github.com/m3rciful/quizbot/core/results"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// User-facing texts that do not come from the driver.
const (
	FailureReply     = "Something went wrong on my side. Please try again."
	UnsupportedReply = "Please answer with text: send one of the options exactly as written."
	EmptyTopReply    = "No one has finished the quiz yet."
)

var errNoSession = errors.New("quizbot: no session on update")

// Handlers serve quiz conversations and the leaderboard.
type Handlers struct {
	driver   *quiz.Driver
	recorder results.Recorder
	topLimit int
	columns  int
	now      func() time.Time
}

// NewHandlers wires handlers around a driver and a recorder.
func NewHandlers(driver *quiz.Driver, recorder results.Recorder, topLimit, columns int) *Handlers {
	return &Handlers{
		driver:   driver,
		recorder: recorder,
		topLimit: topLimit,
		columns:  columns,
		now:      time.Now,
	}
}

// Quiz feeds the message text into the driver and sends its replies. The
// option keyboard is attached while a question is pending and removed
// otherwise.
func (h *Handlers) Quiz(c tele.Context) error {
	return h.converse(c, c.Text())
}

// Reset serves the reset command. Telegram delivers "/reset@bot" and
// "/reset args" to the same endpoint, so the driver always gets the bare
// command.
func (h *Handlers) Reset(c tele.Context) error {
	return h.converse(c, quiz.ResetCommand)
}

func (h *Handlers) converse(c tele.Context, text string) error {
	ctx := tghelpers.BuildContext(c)
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return errNoSession
	}

	before := h.driver.Status(s)
	replies, err := h.driver.HandleMessage(ctx, text, s)
	if err != nil {
		logger.Error(ctx, "quiz", "message.handle",
			slog.String("status", "fail"),
			slog.String("phase", before.Phase.String()),
			slog.Any("err", err),
		)
		_ = tghelpers.SendText(c, FailureReply)
		return err
	}

	after := h.driver.Status(s)
	if before.Phase == quiz.InProgress && after.Phase == quiz.Completed {
		h.record(ctx, c.Sender(), h.driver.Score(s))
	}
	return tghelpers.SendTexts(c, replies, &tele.SendOptions{ReplyMarkup: h.markup(s)})
}

func (h *Handlers) markup(s quiz.Session) *tele.ReplyMarkup {
	if q, ok := h.driver.Question(s); ok {
		return keyboard.Choices(q.Options, h.columns)
	}
	return keyboard.RemoveKeyboard()
}

// record stores a finished attempt. Failures are logged only; the player
// still gets the summary.
func (h *Handlers) record(ctx context.Context, user *tele.User, sc quiz.Score) {
	if h.recorder == nil || user == nil {
		return
	}
	entry := results.Entry{
		UserID:     user.ID,
		Username:   user.Username,
		FirstName:  user.FirstName,
		Correct:    sc.Correct,
		Total:      sc.Total,
		FinishedAt: h.now().UTC(),
	}
	best, err := h.recorder.Record(ctx, entry)
	if err != nil {
		logger.Error(ctx, "results", "result.record", slog.String("status", "fail"), slog.Any("err", err))
		return
	}
	logger.Info(ctx, "results", "result.record",
		slog.Int("correct", sc.Correct),
		slog.Int("total", sc.Total),
		slog.Bool("best", best),
	)
}

// Top sends the leaderboard. "/top 5" limits it to five rows, capped at the
// configured limit.
func (h *Handlers) Top(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	limit := h.topLimit
	if args := c.Args(); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n < limit {
			limit = n
		}
	}
	entries, err := h.recorder.Top(ctx, limit)
	if err != nil {
		_ = tghelpers.SendText(c, FailureReply)
		return fmt.Errorf("quizbot: top: %w", err)
	}
	return tghelpers.SendText(c, FormatLeaderboard(entries))
}

// Unsupported answers non-text messages.
func (h *Handlers) Unsupported(c tele.Context) error {
	return tghelpers.SendText(c, UnsupportedReply)
}

// FormatLeaderboard renders ranked entries, one line per player.
func FormatLeaderboard(entries []results.Entry) string {
	if len(entries) == 0 {
		return EmptyTopReply
	}
	var b strings.Builder
	b.WriteString("Top players:")
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%d. %s: %d/%d (%.2f%%)", i+1, displayName(e), e.Correct, e.Total, e.Percentage())
	}
	return b.String()
}

func displayName(e results.Entry) string {
	switch {
	case e.Username != "":
		return "@" + e.Username
	case e.FirstName != "":
		return e.FirstName
	default:
		return "player " + strconv.FormatInt(e.UserID, 10)
	}
}
