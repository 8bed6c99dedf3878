package instrument

import (
	"encoding/json"
	"log/slog"
	"strings"
)

const masked = "***"

// Masker hides the values of sensitive keys in log attributes and decoded
// JSON payloads. Key matching is case-insensitive.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker for the given field names. Blank names are ignored.
func NewMasker(fields []string) Masker {
	keys := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(strings.ToLower(field))
		if field == "" {
			continue
		}
		keys[field] = struct{}{}
	}
	return Masker{keys: keys}
}

func (m Masker) Empty() bool { return len(m.keys) == 0 }

// Has reports whether key must be masked.
func (m Masker) Has(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Data walks decoded JSON (maps and slices) and masks matching keys.
func (m Masker) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Has(k) {
				out[k] = masked
				continue
			}
			out[k] = m.Data(v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Has(k) {
				out[k] = masked
				continue
			}
			out[k] = v2
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Data(v2)
		}
		return out
	default:
		return v
	}
}

// JSON masks a JSON document. ok is false when payload is not a JSON object or array.
func (m Masker) JSON(payload []byte) (string, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.Data(body))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Attr masks a single slog attribute, descending into groups.
func (m Masker) Attr(attr slog.Attr) slog.Attr {
	if m.Empty() {
		return attr
	}
	if m.Has(attr.Key) {
		return slog.String(attr.Key, masked)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			out = append(out, m.Attr(ga))
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := m.JSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch val := attr.Value.Any().(type) {
		case nil:
		case map[string]any, map[string]string, []any:
			attr.Value = slog.AnyValue(m.Data(val))
		case []byte:
			if s, ok := m.JSON(val); ok {
				attr.Value = slog.StringValue(s)
			}
		}
	}

	return attr
}
