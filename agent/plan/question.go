package plan

import "strings"

// SanitizeQuestion keeps a single question. Text is cut after the first '?';
// with no '?', a trailing period is dropped and '?' appended.
func SanitizeQuestion(question string) string {
	q := strings.TrimSpace(question)
	if q == "" {
		return ""
	}
	if idx := strings.IndexByte(q, '?'); idx >= 0 {
		return strings.TrimSpace(q[:idx+1])
	}
	q = strings.TrimSpace(strings.TrimSuffix(q, "."))
	return q + "?"
}
