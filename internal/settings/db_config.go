package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// current is the in-memory copy of the settings table read by the typed getters.
// Writers swap the whole map; readers never see a partial update.
var current atomic.Pointer[map[string]json.RawMessage]

// StoreDBConfig replaces the snapshot with a copy of values. Blank keys are dropped.
func StoreDBConfig(values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for key, raw := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		next[key] = append(json.RawMessage(nil), raw...)
	}
	current.Store(&next)
}

// DBConfigValue returns a copy of the raw JSON stored for key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	values := current.Load()
	if values == nil {
		return nil, false
	}
	raw, ok := (*values)[strings.TrimSpace(key)]
	if !ok {
		return nil, false
	}
	return append(json.RawMessage(nil), raw...), true
}

// StringValue returns the string setting for key or fallback when unset or not a string.
func StringValue(key, fallback string) string {
	raw, ok := DBConfigValue(key)
	if !ok || len(raw) == 0 {
		return fallback
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
		return fallback
	}
	return s
}

// IntValue returns the integer setting for key or fallback when unset or not an integer.
func IntValue(key string, fallback int) int {
	raw, ok := DBConfigValue(key)
	if !ok {
		return fallback
	}
	if n, okParse := parseInt(raw); okParse {
		return n
	}
	return fallback
}

// parseInt accepts JSON numbers without a fraction and numeric strings.
func parseInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if errUnmarshal := json.Unmarshal(raw, &f); errUnmarshal == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(s))
		if errParse == nil {
			return parsed, true
		}
	}
	return 0, false
}
