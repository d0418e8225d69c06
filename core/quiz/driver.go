package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
)

const (
	// DefaultWelcome is sent before the first question of every attempt.
	DefaultWelcome = "Hello! I am the Python quiz bot. Answer each question by sending one of the options exactly as written."
	// DefaultTitle names the quiz in the final summary.
	DefaultTitle = "Python"

	// ResetCommand clears an active or completed quiz.
	ResetCommand = "/reset"
	// ResetReply confirms a reset.
	ResetReply = "Quiz has been reset. Ask me anything to start again."
)

// Phase is the coarse conversation state derived from the session.
type Phase int

const (
	// NotStarted means no quiz is in progress.
	NotStarted Phase = iota
	// InProgress means a question is awaiting an answer.
	InProgress
	// Completed means every question has been answered.
	Completed
)

func (p Phase) String() string {
	switch p {
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	default:
		return "not_started"
	}
}

// Status describes where a session is in the quiz.
type Status struct {
	Phase      Phase
	QuestionID int
}

// Option customises a Driver.
type Option func(*Driver)

// WithWelcome overrides the welcome text.
func WithWelcome(text string) Option {
	return func(d *Driver) {
		if strings.TrimSpace(text) != "" {
			d.welcome = text
		}
	}
}

// WithTitle overrides the quiz name used in the summary.
func WithTitle(title string) Option {
	return func(d *Driver) {
		if strings.TrimSpace(title) != "" {
			d.title = title
		}
	}
}

// Driver runs the question/answer conversation over a Session. It holds no
// per-user state and does no locking; callers serialise messages per user.
type Driver struct {
	bank    *Bank
	welcome string
	title   string
}

// NewDriver creates a driver over a validated bank.
func NewDriver(bank *Bank, opts ...Option) (*Driver, error) {
	if bank.Len() == 0 {
		return nil, ErrEmptyBank
	}
	d := &Driver{bank: bank, welcome: DefaultWelcome, title: DefaultTitle}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Bank returns the question bank the driver serves.
func (d *Driver) Bank() *Bank { return d.bank }

// Status reports the phase of the session. Undecodable ids count as not
// started; ids outside the bank (including a legacy -1) count as completed.
func (d *Driver) Status(s Session) Status {
	id, ok := currentQuestionID(s)
	if !ok {
		return Status{Phase: NotStarted}
	}
	if id < 0 || id >= d.bank.Len() {
		return Status{Phase: Completed, QuestionID: id}
	}
	return Status{Phase: InProgress, QuestionID: id}
}

// Question returns the question currently awaiting an answer.
func (d *Driver) Question(s Session) (Question, bool) {
	st := d.Status(s)
	if st.Phase != InProgress {
		return Question{}, false
	}
	return d.bank.Question(st.QuestionID)
}

// Score evaluates the answers stored in the session.
func (d *Driver) Score(s Session) Score {
	return score(d.bank, answersFrom(s))
}

// HandleMessage consumes one incoming message and returns the replies to
// send, in order. Only session persistence failures are returned as errors.
func (d *Driver) HandleMessage(ctx context.Context, message string, s Session) ([]string, error) {
	st := d.Status(s)

	if st.Phase == NotStarted {
		return d.start(ctx, s)
	}

	if strings.TrimSpace(message) == ResetCommand {
		return d.reset(ctx, s)
	}

	if st.Phase == Completed {
		logger.Debug(ctx, "quiz", "quiz.already_completed",
			slog.Int("question_id", st.QuestionID),
		)
		return []string{d.completedReply(s)}, nil
	}

	if err := d.recordAnswer(ctx, message, st.QuestionID, s); err != nil {
		var qerr *Error
		if errors.As(err, &qerr) {
			logger.Debug(ctx, "quiz", "answer.rejected",
				slog.String("status", "skip"),
				slog.Int("question_id", st.QuestionID),
				slog.String("err_code", qerr.Code()),
			)
			return []string{qerr.Reply()}, nil
		}
		return nil, err
	}

	return d.advance(ctx, st.QuestionID, s)
}

func (d *Driver) start(ctx context.Context, s Session) ([]string, error) {
	s.Set(KeyCurrentQuestion, 0)
	s.Set(KeyAnswers, map[string]string{})
	if err := s.Save(ctx); err != nil {
		return nil, fmt.Errorf("quiz: save session on start: %w", err)
	}
	first, _ := d.bank.Question(0)
	logger.Info(ctx, "quiz", "quiz.started",
		slog.String("status", "ok"),
		slog.Int("questions", d.bank.Len()),
	)
	return []string{d.welcome, Render(first)}, nil
}

func (d *Driver) reset(ctx context.Context, s Session) ([]string, error) {
	s.Set(KeyCurrentQuestion, nil)
	s.Set(KeyAnswers, map[string]string{})
	if err := s.Save(ctx); err != nil {
		return nil, fmt.Errorf("quiz: save session on reset: %w", err)
	}
	logger.Info(ctx, "quiz", "quiz.reset", slog.String("status", "ok"))
	return []string{ResetReply}, nil
}

// recordAnswer validates answer against question id and stores it.
func (d *Driver) recordAnswer(ctx context.Context, answer string, id int, s Session) error {
	if _, ok := d.bank.Question(id); !ok {
		return ErrNoActiveQuestion
	}
	if !d.bank.HasOption(id, answer) {
		return ErrInvalidAnswer
	}
	answers := answersFrom(s)
	answers[answerKey(id)] = answer
	s.Set(KeyAnswers, answers)
	if err := s.Save(ctx); err != nil {
		return fmt.Errorf("quiz: save answer: %w", err)
	}
	logger.Debug(ctx, "quiz", "answer.recorded",
		slog.String("status", "ok"),
		slog.Int("question_id", id),
		slog.Int("answers", len(answers)),
	)
	return nil
}

func (d *Driver) advance(ctx context.Context, id int, s Session) ([]string, error) {
	next := id + 1
	var reply string
	if q, ok := d.bank.Question(next); ok {
		reply = Render(q)
	} else {
		sc := d.Score(s)
		reply = d.summary(sc)
		logger.Info(ctx, "quiz", "quiz.completed",
			slog.String("status", "ok"),
			slog.Int("correct", sc.Correct),
			slog.Int("total", sc.Total),
		)
	}
	s.Set(KeyCurrentQuestion, next)
	if err := s.Save(ctx); err != nil {
		return nil, fmt.Errorf("quiz: save progress: %w", err)
	}
	return []string{reply}, nil
}

func (d *Driver) summary(sc Score) string {
	return fmt.Sprintf("You scored %s in the %s quiz.", sc.Summary(), d.title)
}

func (d *Driver) completedReply(s Session) string {
	return "You have already completed the quiz. " + d.summary(d.Score(s)) +
		"\nSend " + ResetCommand + " to start again."
}
