package logger

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var errNoWriter = errors.New("logger: writer not initialized")

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler flattens every record into one line of known keys, the
// well-known ones first in keyOrder.
type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = slices.Clone(defaultKeyOrder)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errNoWriter
	}
	jsonOut := h.cfg.format == formatJSON

	fs := make(fieldSet, 16)
	ts := r.Time.UTC()
	fs["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	fs["level"] = normalizeLevel(r.Level.String())
	if jsonOut {
		fs["ts_unix_nano"] = ts.UnixNano()
	}

	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		fs.collect(prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		fs.collect(prefix, a)
		return true
	})
	fs.fromContext(ctx)
	fs.compactRID(jsonOut)
	fs.fillDefaults(r.Message)
	fs.enforceEnums()
	fs.prune()

	keys := fs.orderedKeys(h.cfg.keyOrder)
	if !jsonOut {
		return h.cfg.writer.Write(fs.encodeKV(keys))
	}
	line, err := fs.encodeJSON(keys)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(line)
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(slices.Clip(h.attrs), attrs...)
	return &next
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(slices.Clip(h.groups), name)
	return &next
}

// fieldSet is the flat key/value view of a single record.
type fieldSet map[string]any

func (fs fieldSet) collect(prefix string, attr slog.Attr) {
	key := attr.Key
	switch {
	case prefix == "":
	case key == "":
		key = prefix
	default:
		key = prefix + "." + key
	}
	val := attr.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		for _, child := range val.Group() {
			fs.collect(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := normalizeAttr(key, val); ok {
		fs[k] = v
	}
}

func (fs fieldSet) str(key string) string {
	switch v := fs[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// fromContext adds update identifiers unless an attr already set them.
func (fs fieldSet) fromContext(ctx context.Context) {
	m := metaFrom(ctx)
	add := func(key string, val any, zero bool) {
		if _, taken := fs[key]; !taken && !zero {
			fs[key] = val
		}
	}
	add("rid", m.rid, m.rid == "")
	add("user_id", m.userID, m.userID == 0)
	add("update_id", m.updateID, m.updateID == 0)
	add("chat_id", m.chatID, m.chatID == 0)
	add("handler", m.handler, m.handler == "")
}

// compactRID shortens rid. JSON output keeps the raw value as rid_full.
func (fs fieldSet) compactRID(keepFull bool) {
	rid := fs.str("rid")
	if rid == "" {
		return
	}
	short := CompactRID(rid)
	if short == rid {
		return
	}
	if _, ok := fs["rid_full"]; keepFull && !ok {
		fs["rid_full"] = rid
	}
	fs["rid"] = short
}

func (fs fieldSet) fillDefaults(msg string) {
	if fs.str("event") == "" {
		fs["event"] = cmp.Or(msg, "unknown")
	}
	if fs.str("component") == "" {
		fs["component"] = "app"
	}
}

// enforceEnums lowercases status and outcome. Unknown statuses pass through,
// unknown outcomes are dropped.
func (fs fieldSet) enforceEnums() {
	if s := fs.str("status"); s != "" {
		fs["status"], _ = normalizeEnum(allowedStatus, s)
	}
	if o := fs.str("outcome"); o != "" {
		if v, ok := normalizeEnum(allowedOutcome, o); ok {
			fs["outcome"] = v
		} else {
			delete(fs, "outcome")
		}
	}
}

func (fs fieldSet) prune() {
	for k, v := range fs {
		if v == nil || v == "" {
			delete(fs, k)
		}
	}
}

// orderedKeys lists keys present in order first, then the rest alphabetically.
func (fs fieldSet) orderedKeys(order []string) []string {
	keys := make([]string, 0, len(fs))
	for _, k := range order {
		if _, ok := fs[k]; ok && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	head := len(keys)
	for k := range fs {
		if !slices.Contains(keys[:head], k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[head:])
	return keys
}

func (fs fieldSet) encodeJSON(keys []string) ([]byte, error) {
	out := make([]byte, 0, 256)
	out = append(out, '{')
	for i, k := range keys {
		v, err := json.Marshal(fs[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendQuote(out, k)
		out = append(out, ':')
		out = append(out, v...)
	}
	return append(out, '}', '\n'), nil
}

func (fs fieldSet) encodeKV(keys []string) []byte {
	out := make([]byte, 0, 256)
	for i, k := range keys {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, k...)
		out = append(out, '=')
		s := fs.str(k)
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			out = strconv.AppendQuote(out, s)
		} else {
			out = append(out, s...)
		}
	}
	return append(out, '\n')
}

// durationKey makes the unit explicit: "duration" becomes "duration_ms" and
// "x_duration" becomes "x_duration_ms".
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	}
	return key + "_ms"
}

func normalizeAttr(key string, val slog.Value) (string, any, bool) {
	switch val.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(val.String()), true
	case slog.KindBool:
		return key, val.Bool(), true
	case slog.KindInt64:
		return key, val.Int64(), true
	case slog.KindUint64:
		if u := val.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, val.Uint64(), true
	case slog.KindFloat64:
		return key, val.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(val.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, val.Time().UTC().Format(time.RFC3339Nano), true
	}

	switch x := val.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}
