package rag

import "strings"

const referencesHeader = "\n\n---\n**References:**\n"

// FormatResponse trims the model answer and, when snippets exist, appends a
// References section listing each distinct source once in first-seen order.
func FormatResponse(rawAnswer string, snippets []Snippet) string {
	answer := strings.TrimSpace(rawAnswer)

	sources := DedupSources(snippets)
	if len(sources) == 0 {
		return answer
	}

	var b strings.Builder
	b.WriteString(answer)
	b.WriteString(referencesHeader)
	for _, src := range sources {
		b.WriteString("- ")
		b.WriteString(src)
		b.WriteString("\n")
	}
	return b.String()
}

// DedupSources returns the distinct snippet sources in first-seen order.
func DedupSources(snippets []Snippet) []string {
	seen := make(map[string]struct{}, len(snippets))
	sources := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if _, ok := seen[s.Source]; ok {
			continue
		}
		seen[s.Source] = struct{}{}
		sources = append(sources, s.Source)
	}
	return sources
}

// AnswerBody returns a formatted response without its References section.
func AnswerBody(formatted string) string {
	body, _, _ := strings.Cut(formatted, referencesHeader)
	return body
}
