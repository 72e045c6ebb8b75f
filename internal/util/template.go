package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"title": func(s string) string {
		if len(s) == 0 {
			return s
		}
		return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
	},
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
}

// RenderTemplate replaces template variables using Go's text/template package.
// Prompts are plain text so no HTML escaping is applied.
func RenderTemplate(text string, state map[string]any) (string, error) {
	if !strings.Contains(text, "{{") { // fast path: no template markers
		return text, nil
	}
	tmpl, err := template.New("prompt").Funcs(funcs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParseTemplate reports whether text is a valid template without rendering it.
func ParseTemplate(text string) error {
	if !strings.Contains(text, "{{") {
		return nil
	}
	_, err := template.New("prompt").Funcs(funcs).Parse(text)
	return err
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
