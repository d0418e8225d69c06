package quiz

import (
	"fmt"
	"strings"
)

// Render formats a question with its options numbered from 1.
func Render(q Question) string {
	lines := make([]string, len(q.Options))
	for i, opt := range q.Options {
		lines[i] = fmt.Sprintf("%d. %s", i+1, opt)
	}
	return q.Text + "\nOptions:\n" + strings.Join(lines, "\n")
}
