package game

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MaxAppearanceKeys  = 16
	MaxAppearanceBytes = 300
	maxAppearanceValue = 64
)

// SanitizeAppearance keeps at most MaxAppearanceKeys scalar entries (strings,
// finite numbers, bools) in key order and drops trailing keys until the JSON
// form fits in MaxAppearanceBytes. Nil in, nil out.
func SanitizeAppearance(in Appearance) Appearance {
	if in == nil {
		return nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		if k == "" || len(k) > maxAppearanceValue {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Appearance{}
	for _, k := range keys {
		if len(out) >= MaxAppearanceKeys {
			break
		}
		switch v := in[k].(type) {
		case string:
			out[k] = truncate(v, maxAppearanceValue)
		case bool:
			out[k] = v
		case float64:
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				out[k] = v
			}
		case int:
			out[k] = float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				out[k] = f
			}
		}
	}

	for len(out) > 0 {
		data, err := json.Marshal(out)
		if err == nil && len(data) <= MaxAppearanceBytes {
			break
		}
		kept := make([]string, 0, len(out))
		for k := range out {
			kept = append(kept, k)
		}
		sort.Strings(kept)
		delete(out, kept[len(kept)-1])
	}
	return out
}

// AppearanceJSON renders an appearance for the wire. Map keys come out sorted
// so equal appearances always produce equal strings.
func AppearanceJSON(a Appearance) string {
	if len(a) == 0 {
		return ""
	}
	data, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	return string(data)
}

func fallbackName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return truncate(name, MaxNameLength)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
