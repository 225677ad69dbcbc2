package tools

import (
	"strconv"
	"strings"
)

// Descriptor is one tool advertised by the external connection.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Content is a single content block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	JSON any    `json:"json,omitempty"`
}

// Result is a tool invocation response as returned by the connection.
type Result struct {
	StructuredContent any       `json:"structuredContent,omitempty"`
	Content           []Content `json:"content,omitempty"`
	IsError           bool      `json:"isError,omitempty"`
}

// Text joins the text blocks of the result.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Names lists the tool names of a catalog in order.
func Names(catalog []Descriptor) []string {
	names := make([]string, 0, len(catalog))
	for _, d := range catalog {
		names = append(names, d.Name)
	}
	return names
}

// StringField returns the first non-empty string or numeric value under keys.
func StringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}
