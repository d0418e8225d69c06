package quizbot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/core/quiz"
	"github.com/m3rciful/quizbot/core/results"
	"github.com/m3rciful/quizbot/core/session"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
)

type sent struct {
	text   string
	markup *tele.ReplyMarkup
}

// chat plays one Telegram user against the handlers.
type chat struct {
	tele.Context

	mu    sync.Mutex
	user  *tele.User
	msg   *tele.Message
	store map[string]any
	out   *[]sent
}

func (c *chat) Update() tele.Update { return tele.Update{ID: 1, Message: c.msg} }
func (c *chat) Sender() *tele.User  { return c.user }
func (c *chat) Chat() *tele.Chat    { return c.msg.Chat }
func (c *chat) Text() string        { return c.msg.Text }
func (c *chat) Args() []string      { return strings.Fields(c.msg.Payload) }

func (c *chat) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *chat) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = v
}

func (c *chat) Send(what any, opts ...any) error {
	s := sent{text: what.(string)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			s.markup = so.ReplyMarkup
		}
	}
	*c.out = append(*c.out, s)
	return nil
}

type harness struct {
	t        *testing.T
	handlers *Handlers
	store    *session.MemoryStore
	recorder *results.MemoryRecorder
	handler  tele.HandlerFunc
	reset    tele.HandlerFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	bank, err := quiz.NewBank([]quiz.Question{
		{Text: "2+2?", Options: []string{"3", "4"}, Answer: "4"},
		{Text: "Go keyword for loops?", Options: []string{"for", "while", "loop"}, Answer: "for"},
	})
	require.NoError(t, err)
	driver, err := quiz.NewDriver(bank, quiz.WithTitle("Go"))
	require.NoError(t, err)

	h := &harness{
		t:        t,
		store:    session.NewMemoryStore(),
		recorder: results.NewMemoryRecorder(),
	}
	h.handlers = NewHandlers(driver, h.recorder, 10, 2)
	h.handlers.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	withSession := middleware.SessionMiddleware(middleware.SessionOptions{Store: h.store})
	h.handler = withSession(h.handlers.Quiz)
	h.reset = withSession(h.handlers.Reset)
	return h
}

func (h *harness) say(user *tele.User, text string) []sent {
	h.t.Helper()
	return h.sayTo(h.handler, user, text)
}

func (h *harness) sayTo(handler tele.HandlerFunc, user *tele.User, text string) []sent {
	h.t.Helper()
	var out []sent
	c := &chat{
		user:  user,
		msg:   &tele.Message{Sender: user, Chat: &tele.Chat{ID: user.ID}, Text: text},
		store: map[string]any{},
		out:   &out,
	}
	require.NoError(h.t, handler(c))
	return out
}

func TestQuizConversation(t *testing.T) {
	h := newHarness(t)
	alice := &tele.User{ID: 1, Username: "alice"}

	out := h.say(alice, "hi")
	require.Len(t, out, 2)
	assert.Equal(t, quiz.DefaultWelcome, out[0].text)
	assert.Nil(t, out[0].markup)
	assert.Equal(t, "2+2?\nOptions:\n1. 3\n2. 4", out[1].text)
	require.NotNil(t, out[1].markup)
	assert.Equal(t, "3", out[1].markup.ReplyKeyboard[0][0].Text)

	out = h.say(alice, "5")
	require.Len(t, out, 1)
	assert.Equal(t, quiz.ErrInvalidAnswer.Reply(), out[0].text)
	assert.NotNil(t, out[0].markup.ReplyKeyboard)

	out = h.say(alice, "4")
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0].text, "Go keyword for loops?"))
	assert.Len(t, out[0].markup.ReplyKeyboard, 2)

	out = h.say(alice, "while")
	require.Len(t, out, 1)
	assert.Equal(t, "You scored 1/2 (50.00%) in the Go quiz.", out[0].text)
	assert.True(t, out[0].markup.RemoveKeyboard)

	top, err := h.recorder.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, results.Entry{
		UserID: 1, Username: "alice", Correct: 1, Total: 2,
		FinishedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}, top[0])

	out = h.say(alice, "again")
	require.Len(t, out, 1)
	assert.Contains(t, out[0].text, "already completed")
	top, _ = h.recorder.Top(context.Background(), 10)
	assert.Len(t, top, 1)

	out = h.say(alice, " /reset ")
	require.Len(t, out, 1)
	assert.Equal(t, quiz.ResetReply, out[0].text)
	assert.True(t, out[0].markup.RemoveKeyboard)
}

func TestResetCommandVariants(t *testing.T) {
	h := newHarness(t)
	bob := &tele.User{ID: 2, Username: "bob"}

	for _, text := range []string{"/reset@quizbot", "/reset please"} {
		out := h.say(bob, "hi")
		require.Len(t, out, 2, text)

		out = h.sayTo(h.reset, bob, text)
		require.Len(t, out, 1, text)
		assert.Equal(t, quiz.ResetReply, out[0].text, text)
		assert.True(t, out[0].markup.RemoveKeyboard, text)

		s, err := session.Open(context.Background(), h.store, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, quiz.NotStarted, h.handlers.driver.Status(s).Phase, text)
	}

	top, err := h.recorder.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestQuizWithoutSession(t *testing.T) {
	h := newHarness(t)
	var out []sent
	user := &tele.User{ID: 9}
	c := &chat{
		user:  user,
		msg:   &tele.Message{Sender: user, Chat: &tele.Chat{ID: 9}, Text: "hi"},
		store: map[string]any{},
		out:   &out,
	}
	assert.ErrorIs(t, h.handlers.Quiz(c), errNoSession)
}

func TestTopCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _ = h.recorder.Record(ctx, results.Entry{UserID: 1, Username: "alice", Correct: 2, Total: 2})
	_, _ = h.recorder.Record(ctx, results.Entry{UserID: 2, FirstName: "Bob", Correct: 1, Total: 2})
	_, _ = h.recorder.Record(ctx, results.Entry{UserID: 3, Correct: 0, Total: 2})

	var out []sent
	user := &tele.User{ID: 5}
	c := &chat{
		user:  user,
		msg:   &tele.Message{Sender: user, Chat: &tele.Chat{ID: 5}, Text: "/top 2", Payload: "2"},
		store: map[string]any{},
		out:   &out,
	}
	require.NoError(t, h.handlers.Top(c))
	require.Len(t, out, 1)
	assert.Equal(t, "Top players:\n1. @alice: 2/2 (100.00%)\n2. Bob: 1/2 (50.00%)", out[0].text)
}

func TestFormatLeaderboard(t *testing.T) {
	assert.Equal(t, EmptyTopReply, FormatLeaderboard(nil))
	assert.Equal(t, "Top players:\n1. player 7: 1/3 (33.33%)",
		FormatLeaderboard([]results.Entry{{UserID: 7, Correct: 1, Total: 3}}))
}
