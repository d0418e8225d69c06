package quiz

import "fmt"

// Score is the outcome of a quiz attempt.
type Score struct {
	Correct int
	Total   int
}

// Percentage returns Correct/Total*100, or 0 for an empty quiz.
func (s Score) Percentage() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total) * 100
}

// Summary formats the score as "{correct}/{total} ({pct}%)".
func (s Score) Summary() string {
	return fmt.Sprintf("%d/%d (%.2f%%)", s.Correct, s.Total, s.Percentage())
}

func score(bank *Bank, answers map[string]string) Score {
	s := Score{Total: bank.Len()}
	for i, q := range bank.questions {
		if a, ok := answers[answerKey(i)]; ok && a == q.Answer {
			s.Correct++
		}
	}
	return s
}
