package tools

import (
	"strings"

	"github.com/user/planstream/internal/jsontext"
)

// DefaultEnvelopeKeys are searched after any caller-preferred keys.
var DefaultEnvelopeKeys = []string{"projects", "labels", "data", "items", "results", "structuredContent"}

type accessor func(Result) (any, bool)

// payloadAccessors are tried in order; the first usable payload wins.
var payloadAccessors = []accessor{
	structuredAccessor,
	jsonBlockAccessor,
	textJSONAccessor,
	plainTextAccessor,
}

// Payload returns the most structured payload a result carries. A plain-text
// result yields its text as a string. No content yields (nil, false).
func Payload(res Result) (any, bool) {
	for _, get := range payloadAccessors {
		if v, ok := get(res); ok {
			return v, true
		}
	}
	return nil, false
}

func structuredAccessor(res Result) (any, bool) {
	switch v := res.StructuredContent.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, len(v) > 0
	case []any:
		return v, true
	default:
		return v, true
	}
}

func jsonBlockAccessor(res Result) (any, bool) {
	for _, c := range res.Content {
		if c.Type == "json" && c.JSON != nil {
			return c.JSON, true
		}
	}
	return nil, false
}

func textJSONAccessor(res Result) (any, bool) {
	for _, c := range res.Content {
		if c.Type != "text" {
			continue
		}
		if v, ok := jsontext.Parse(c.Text); ok {
			return v, true
		}
	}
	return nil, false
}

func plainTextAccessor(res Result) (any, bool) {
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return nil, false
	}
	return text, true
}

// ExtractArray finds an array payload under the preferred keys, the default
// envelope keys, or one level of nesting below the default keys. It never
// returns nil.
func ExtractArray(v any, preferred []string) []any {
	keys := mergeKeys(preferred, DefaultEnvelopeKeys)
	if arr := extractArray(v, keys, 1); arr != nil {
		return arr
	}
	return []any{}
}

func extractArray(v any, keys []string, depth int) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		for _, k := range keys {
			if arr, ok := t[k].([]any); ok {
				return arr
			}
		}
		if depth <= 0 {
			return nil
		}
		for _, k := range DefaultEnvelopeKeys {
			nested, ok := t[k].(map[string]any)
			if !ok {
				continue
			}
			if arr := extractArray(nested, DefaultEnvelopeKeys, depth-1); arr != nil {
				return arr
			}
		}
	}
	return nil
}

func mergeKeys(preferred, defaults []string) []string {
	out := make([]string, 0, len(preferred)+len(defaults))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]string{preferred, defaults} {
		for _, k := range list {
			if _, ok := seen[k]; ok || k == "" {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Objects keeps the object elements of an extracted array.
func Objects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
