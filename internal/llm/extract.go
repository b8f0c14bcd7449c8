package llm

import "strings"

// ExtractJSON pulls a JSON object out of model output that may wrap it in
// markdown. Fallback order is fixed: a ```json fence, then any fence,
// then bare brace matching. Returns "" when no candidate is found; the
// caller decides whether that is fatal.
func ExtractJSON(text string) string {
	if block := extractFence(text, "```json"); block != "" {
		return block
	}
	if block := extractFence(text, "```"); block != "" {
		// A generic fence can hold anything; only accept it when it
		// plausibly contains an object.
		if strings.Contains(block, "{") {
			return extractBraces(block)
		}
	}
	return extractBraces(text)
}

// extractFence returns the trimmed contents of the first fenced block
// opened by marker.
func extractFence(text, marker string) string {
	start := strings.Index(text, marker)
	if start == -1 {
		return ""
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// extractBraces returns the first balanced {...} span, tracking string
// literals and escapes so braces inside values don't break the match.
func extractBraces(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
