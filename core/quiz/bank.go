package quiz

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyBank is returned when a bank would contain no questions.
var ErrEmptyBank = errors.New("quiz: question bank is empty")

// Question is a single multiple-choice entry of the bank.
type Question struct {
	Text    string   `yaml:"question_text"`
	Options []string `yaml:"options"`
	Answer  string   `yaml:"answer"`
}

// Bank is an ordered, read-only list of questions. The index of a question
// is its identity.
type Bank struct {
	questions []Question
}

// NewBank validates questions and returns an immutable bank holding copies of them.
func NewBank(questions []Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}
	out := make([]Question, 0, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("quiz: question %d: %w", i, err)
		}
		out = append(out, Question{
			Text:    q.Text,
			Options: slices.Clone(q.Options),
			Answer:  q.Answer,
		})
	}
	return &Bank{questions: out}, nil
}

func validateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) == 0 {
		return errors.New("no options")
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt == "" {
			return errors.New("empty option")
		}
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[q.Answer]; !ok {
		return fmt.Errorf("answer %q is not one of the options", q.Answer)
	}
	return nil
}

// Len returns the number of questions.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.questions)
}

// Question returns a copy of the question at index i.
func (b *Bank) Question(i int) (Question, bool) {
	if b == nil || i < 0 || i >= len(b.questions) {
		return Question{}, false
	}
	q := b.questions[i]
	q.Options = slices.Clone(q.Options)
	return q, true
}

// HasOption reports whether answer is exactly one of the options of question i.
func (b *Bank) HasOption(i int, answer string) bool {
	if b == nil || i < 0 || i >= len(b.questions) {
		return false
	}
	return slices.Contains(b.questions[i].Options, answer)
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadBankFile reads a YAML question bank:
//
//	questions:
//	  - question_text: "What does len() return?"
//	    options: ["Length", "Type"]
//	    answer: "Length"
func LoadBankFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quiz: read bank file: %w", err)
	}
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("quiz: parse bank file: %w", err)
	}
	return NewBank(f.Questions)
}

// DefaultBank returns the built-in Python quiz.
func DefaultBank() *Bank {
	b, err := NewBank(pythonQuestions)
	if err != nil {
		panic(err)
	}
	return b
}

var pythonQuestions = []Question{
	{
		Text:    "What is the output of print(2 ** 3)?",
		Options: []string{"6", "8", "9", "5"},
		Answer:  "8",
	},
	{
		Text:    "Which keyword is used to define a function in Python?",
		Options: []string{"func", "function", "def", "lambda"},
		Answer:  "def",
	},
	{
		Text:    "Which of these types is immutable?",
		Options: []string{"list", "dict", "set", "tuple"},
		Answer:  "tuple",
	},
	{
		Text:    "What does len([1, 2, 3]) return?",
		Options: []string{"2", "3", "4", "Error"},
		Answer:  "3",
	},
	{
		Text:    "Which statement handles exceptions?",
		Options: []string{"try/except", "catch/throw", "do/rescue", "guard/else"},
		Answer:  "try/except",
	},
	{
		Text:    "What is the result of 7 // 2?",
		Options: []string{"3.5", "3", "4", "2"},
		Answer:  "3",
	},
	{
		Text:    "Which built-in returns the type of an object?",
		Options: []string{"type()", "typeof()", "class()", "kind()"},
		Answer:  "type()",
	},
	{
		Text:    "How do you start a comment in Python?",
		Options: []string{"//", "#", "--", "/*"},
		Answer:  "#",
	},
}
