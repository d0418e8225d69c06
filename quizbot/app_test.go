package quizbot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryApp(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Equal(t, 8, app.Driver().Bank().Len())
	for _, name := range []string{"/start", "/reset", "/top"} {
		_, _, ok := app.Registry().LookupCommand(name)
		assert.True(t, ok, name)
	}

	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)
	names := make([]string, 0, len(opts.Middlewares))
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics", "session"}, names)
	assert.NotNil(t, app.Registry().TextFallback())
	// 3 commands, 1 alias, text and 5 media routes.
	assert.Len(t, opts.Routes, 10)
	assert.Same(t, cfg.CoreConfig(), opts.Config)
}

func TestNewCustomBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`questions:
  - question_text: "1+1?"
    options: ["2", "3"]
    answer: "2"
`), 0o644))
	cfg := validConfig()
	cfg.Quiz.QuestionsFile = path
	require.NoError(t, Normalize(cfg))

	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, app.Driver().Bank().Len())

	cfg.Quiz.QuestionsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewPostgresWithoutDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Backend = BackendPostgres
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = validConfig()
	cfg.Results.Backend = BackendPostgres
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
