package combat

// ExtractObject returns the balanced JSON object that begins at text[start],
// which must be '{'. Braces inside string literals are ignored and a quote
// preceded by an unescaped backslash does not end a string. It returns the
// object text, the index just past it, and whether the object was closed.
func ExtractObject(text string, start int) (string, int, bool) {
	if start < 0 || start >= len(text) || text[start] != '{' {
		return "", start, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], i + 1, true
			}
		}
	}
	return "", start, false
}

// maskStrings returns a copy of s with the contents of every double-quoted
// string replaced by 'x'. Quotes and all structural bytes keep their offsets.
func maskStrings(s string) []byte {
	out := []byte(s)
	inString := false
	escaped := false
	for i := 0; i < len(out); i++ {
		ch := out[i]
		if !inString {
			if ch == '"' {
				inString = true
			}
			continue
		}
		switch {
		case escaped:
			escaped = false
			out[i] = 'x'
		case ch == '\\':
			escaped = true
			out[i] = 'x'
		case ch == '"':
			inString = false
		default:
			out[i] = 'x'
		}
	}
	return out
}
