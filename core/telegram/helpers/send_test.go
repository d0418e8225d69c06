package helpers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/core/telegram/sender"
)

type outbox struct {
	mu   sync.Mutex
	sent []string
}

type fakeContext struct {
	tele.Context

	chat  *tele.Chat
	store map[string]any
	box   *outbox
	slow  string
}

func (f *fakeContext) Chat() *tele.Chat      { return f.chat }
func (f *fakeContext) Sender() *tele.User    { return &tele.User{ID: f.chat.ID} }
func (f *fakeContext) Update() tele.Update   { return tele.Update{ID: 1} }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

func (f *fakeContext) Send(what any, _ ...any) error {
	text := what.(string)
	if text == f.slow {
		time.Sleep(10 * time.Millisecond)
	}
	f.box.mu.Lock()
	defer f.box.mu.Unlock()
	f.box.sent = append(f.box.sent, text)
	return nil
}

func TestSendTextsKeepChatOrder(t *testing.T) {
	disp := sender.NewDispatcher(sender.Options{Workers: 4})
	SetDispatcher(disp)
	t.Cleanup(func() { SetDispatcher(nil) })

	box := &outbox{}
	chat := &tele.Chat{ID: 42}
	updates := [][]string{
		{"welcome", "question 1"},
		{"question 2"},
		{"question 3"},
		{"summary"},
	}
	for _, texts := range updates {
		c := &fakeContext{chat: chat, store: map[string]any{}, box: box, slow: "question 1"}
		require.NoError(t, SendTexts(c, texts, nil))
	}
	disp.Close()

	assert.Equal(t, []string{"welcome", "question 1", "question 2", "question 3", "summary"}, box.sent)
}

func TestSendTextInlineWithoutDispatcher(t *testing.T) {
	SetDispatcher(nil)
	box := &outbox{}
	c := &fakeContext{chat: &tele.Chat{ID: 1}, store: map[string]any{}, box: box}
	require.NoError(t, SendText(c, "hello"))
	assert.Equal(t, []string{"hello"}, box.sent)
	assert.NoError(t, SendTexts(c, nil, nil))
}
