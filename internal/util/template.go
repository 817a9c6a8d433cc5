package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// templateFuncs are the helper functions available inside prompt templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
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
		"join": func(sep string, items []any) string {
			strItems := make([]string, len(items))
			for i, item := range items {
				strItems[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strItems, sep)
		},
	}
}

// ParseTemplate parses text with the helper funcs. Referencing a key that is
// absent from the execution data is an error rather than "<no value>".
func ParseTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs()).Option("missingkey=error").Parse(text)
}

// ExecuteTemplate renders a parsed template against vars.
func ExecuteTemplate(tmpl *template.Template, vars map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
