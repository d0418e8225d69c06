package quiz

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// KeyCurrentQuestion holds the index of the question awaiting an answer.
	KeyCurrentQuestion = "current_question_id"
	// KeyAnswers holds submitted answers keyed by question index in string form.
	KeyAnswers = "answers"
)

// Session is the per-user key-value state the driver mutates. Save persists
// the current values; the driver calls it once per group of writes.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Save(ctx context.Context) error
}

// currentQuestionID decodes the stored question index. Values that went
// through a JSON round trip arrive as float64.
func currentQuestionID(s Session) (int, bool) {
	v, ok := s.Get(KeyCurrentQuestion)
	if !ok || v == nil {
		return 0, false
	}
	switch id := v.(type) {
	case int:
		return id, true
	case int32:
		return int(id), true
	case int64:
		return int(id), true
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) || math.IsNaN(id) {
			return 0, false
		}
		return int(id), true
	case json.Number:
		n, err := id.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// answersFrom returns a fresh copy of the stored answers.
func answersFrom(s Session) map[string]string {
	out := make(map[string]string)
	v, ok := s.Get(KeyAnswers)
	if !ok || v == nil {
		return out
	}
	switch m := v.(type) {
	case map[string]string:
		for k, a := range m {
			out[k] = a
		}
	case map[string]any:
		for k, a := range m {
			if str, ok := a.(string); ok {
				out[k] = str
			}
		}
	case map[int]string:
		for k, a := range m {
			out[strconv.Itoa(k)] = a
		}
	}
	return out
}

func answerKey(id int) string {
	return strconv.Itoa(id)
}
