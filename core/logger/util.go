package logger

import (
	"strings"
	"time"
)

// Status is "fail" for a non-nil err and "ok" otherwise.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

func Took(start time.Time) time.Duration { return RoundMS(time.Since(start)) }

// RoundMS clamps negative durations to zero and rounds to whole milliseconds.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values with ", ". The bool is true when
// values were cut off.
func SummarizeStrings(values []string, limit int) (string, bool) {
	n := min(max(limit, 0), len(values))
	return strings.Join(values[:n], ", "), n < len(values)
}
