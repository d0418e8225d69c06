package logger

import "strings"

// Level names as they appear in the "level" field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "":
		return LevelInfo
	case "warning":
		return LevelWarn
	default:
		return strings.ToUpper(level)
	}
}

func setOf(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

var (
	allowedStatus  = setOf("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	allowedOutcome = setOf("ok", "fail", "cancelled", "rate_limited")
)

// normalizeEnum lowercases value and reports whether set contains it.
func normalizeEnum(set map[string]struct{}, value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	_, ok := set[value]
	return value, ok && value != ""
}

// defaultKeyOrder puts identity first, then the quiz and transport details
// most often grepped for.
var defaultKeyOrder = strings.Fields(`
	ts level component event status
	rid rid_full ts_unix_nano update_id user_id chat_id chat_type handler
	outcome duration_ms messages kb
	phase question_id answers correct total backend
	payload lang username
	mode listen public_url db host port addr
	err err_code cause attempts
`)
