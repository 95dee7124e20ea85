package mailform

import "regexp"

// placeholderPattern matches "{{ name }}", capturing name without the
// surrounding whitespace. The capture is non-greedy so adjacent placeholders
// stay separate.
var placeholderPattern = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// ExtractVariables returns the distinct placeholder names in body, in order
// of first occurrence. Empty placeholders ("{{}}") are ignored.
func ExtractVariables(body string) []string {
	names := make([]string, 0)
	seen := make(map[string]struct{})

	for _, match := range placeholderPattern.FindAllStringSubmatch(body, -1) {
		name := match[1]
		if name == "" {
			continue
		}

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names
}

// Render replaces every placeholder in subject and body with its binding.
// Placeholders without a binding are replaced by the empty string. Values are
// inserted verbatim and never substituted again.
func Render(subject, body string, bindings map[string]string) (string, string) {
	return substitute(subject, bindings, false), substitute(body, bindings, false)
}

// Preview behaves like Render but leaves placeholders without a binding in
// place, so an incomplete form still shows where values are missing.
func Preview(subject, body string, bindings map[string]string) (string, string) {
	return substitute(subject, bindings, true), substitute(body, bindings, true)
}

func substitute(text string, bindings map[string]string, keepMissing bool) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(placeholder string) string {
		name := placeholderPattern.FindStringSubmatch(placeholder)[1]

		value, ok := bindings[name]
		if !ok && keepMissing {
			return placeholder
		}

		return value
	})
}
