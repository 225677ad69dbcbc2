package jsontext

import (
	"encoding/json"
	"reflect"
	"strings"
)

// StripFences removes a surrounding markdown code fence (``` or ```json).
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		lang := strings.TrimSpace(text[:idx])
		if lang == "" || !strings.ContainsAny(lang, "{[") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Parse decodes text that should hold JSON. Fenced blocks and JSON embedded
// in surrounding prose are accepted; the first decodable chunk wins.
func Parse(raw string) (any, bool) {
	text := StripFences(raw)
	if text == "" {
		return nil, false
	}
	var out any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, true
	}
	for _, chunk := range Chunks(text) {
		if err := json.Unmarshal([]byte(chunk), &out); err == nil {
			return out, true
		}
	}
	return nil, false
}

// Decode unmarshals the first decodable JSON value found in raw into dst.
// dst is left untouched unless decoding succeeds.
func Decode(raw string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return json.Unmarshal([]byte(raw), dst)
	}
	text := StripFences(raw)
	err := decodeInto(text, rv)
	if err == nil {
		return nil
	}
	for _, chunk := range Chunks(text) {
		if decodeInto(chunk, rv) == nil {
			return nil
		}
	}
	return err
}

func decodeInto(text string, dst reflect.Value) error {
	tmp := reflect.New(dst.Elem().Type())
	if err := json.Unmarshal([]byte(text), tmp.Interface()); err != nil {
		return err
	}
	dst.Elem().Set(tmp.Elem())
	return nil
}

// Chunks returns every balanced top-level JSON object or array in raw,
// ignoring brackets inside string literals.
func Chunks(raw string) []string {
	chunks := make([]string, 0, 1)
	depth := 0
	inString := false
	escaped := false
	start := -1
	var open, close byte

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			if depth > 0 {
				inString = true
			}
			continue
		}
		if depth == 0 {
			if ch == '{' || ch == '[' {
				open = ch
				close = '}'
				if ch == '[' {
					close = ']'
				}
				start = i
				depth = 1
			}
			continue
		}
		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 && start >= 0 {
				chunks = append(chunks, raw[start:i+1])
				start = -1
			}
		}
	}
	return chunks
}
