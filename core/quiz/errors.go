package quiz

// Error is a recoverable quiz failure that is reported to the user as a reply.
type Error struct {
	code  string
	reply string
}

func (e *Error) Error() string { return "quiz: " + e.reply }

// Code returns a stable identifier used for log classification.
func (e *Error) Code() string { return e.code }

// Reply returns the user-facing text.
func (e *Error) Reply() string { return e.reply }

var (
	// ErrNoActiveQuestion is returned when an answer arrives with no current question.
	ErrNoActiveQuestion = &Error{code: "NO_ACTIVE_QUESTION", reply: "No question is currently active."}
	// ErrInvalidAnswer is returned when the answer is not one of the current options.
	ErrInvalidAnswer = &Error{code: "INVALID_ANSWER", reply: "Invalid answer option selected."}
)
