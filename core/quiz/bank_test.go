package quiz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankValidation(t *testing.T) {
	cases := map[string][]Question{
		"empty":          nil,
		"no text":        {{Text: " ", Options: []string{"a"}, Answer: "a"}},
		"no options":     {{Text: "q", Answer: "a"}},
		"empty option":   {{Text: "q", Options: []string{"a", ""}, Answer: "a"}},
		"duplicate":      {{Text: "q", Options: []string{"a", "a"}, Answer: "a"}},
		"answer missing": {{Text: "q", Options: []string{"a", "b"}, Answer: "c"}},
	}
	for name, qs := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewBank(qs)
			assert.Error(t, err)
		})
	}
}

func TestBankIsImmutable(t *testing.T) {
	opts := []string{"a", "b"}
	b, err := NewBank([]Question{{Text: "q", Options: opts, Answer: "a"}})
	require.NoError(t, err)

	opts[0] = "changed"
	q, ok := b.Question(0)
	require.True(t, ok)
	assert.Equal(t, "a", q.Options[0])

	q.Options[1] = "changed"
	again, _ := b.Question(0)
	assert.Equal(t, "b", again.Options[1])

	_, ok = b.Question(1)
	assert.False(t, ok)
	_, ok = b.Question(-1)
	assert.False(t, ok)
}

func TestLoadBankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	data := `questions:
  - question_text: "Capital of France?"
    options: ["Paris", "Rome"]
    answer: "Paris"
  - question_text: "2 + 2?"
    options: ["3", "4"]
    answer: "4"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	b, err := LoadBankFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	q, _ := b.Question(1)
	assert.Equal(t, "2 + 2?", q.Text)
	assert.True(t, b.HasOption(1, "4"))
	assert.False(t, b.HasOption(1, "2"))
}

func TestLoadBankFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions: []\n"), 0o644))

	_, err := LoadBankFile(path)
	assert.ErrorIs(t, err, ErrEmptyBank)

	_, err = LoadBankFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultBankIsValid(t *testing.T) {
	assert.Greater(t, DefaultBank().Len(), 0)
}

func TestRender(t *testing.T) {
	got := Render(Question{Text: "Pick one", Options: []string{"x", "y", "z"}})
	assert.Equal(t, "Pick one\nOptions:\n1. x\n2. y\n3. z", got)
}

func TestScorePercentage(t *testing.T) {
	assert.Equal(t, "2/3 (66.67%)", Score{Correct: 2, Total: 3}.Summary())
	assert.Equal(t, "1/8 (12.50%)", Score{Correct: 1, Total: 8}.Summary())
	assert.Equal(t, float64(0), Score{}.Percentage())
}

func TestExampleBankFile(t *testing.T) {
	bank, err := LoadBankFile(filepath.Join("..", "..", "questions.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, bank.Len())
	assert.True(t, bank.HasOption(0, "go"))
}
