package combat

import (
	"regexp"
	"strings"
)

// repairRule is one targeted fix for a malformation language models are
// known to produce. Rules run in order.
type repairRule struct {
	name  string
	apply func(string) string
}

var repairRules = []repairRule{
	{"single-quotes", convertSingleQuotes},
	{"comma-after-close", structural(`([}\]])\s*(["{\[])`, `$1, $2`)},
	{"comma-after-literal", structural(`(true|false|\d)\s+"`, `$1, "`)},
	{"comma-between-strings", structural(`"\s+"`, `", "`)},
	{"trailing-commas", structural(`,\s*([}\]])`, `$1`)},
}

// RepairRules lists rule names in application order.
func RepairRules() []string {
	names := make([]string, len(repairRules))
	for i, r := range repairRules {
		names[i] = r.name
	}
	return names
}

// Repair applies every repair rule in order. Rules only touch text outside
// string literals, so valid JSON comes back unchanged.
func Repair(candidate string) string {
	out := candidate
	for _, r := range repairRules {
		out = r.apply(out)
	}
	return out
}

// structural builds a rule that rewrites regex matches found outside string
// literals. Matches are located on a masked copy; a match never covers masked
// bytes, so expanding the template against the mask yields original text.
func structural(pattern, template string) func(string) string {
	re := regexp.MustCompile(pattern)
	tmpl := []byte(template)
	return func(s string) string {
		masked := maskStrings(s)
		matches := re.FindAllSubmatchIndex(masked, -1)
		if len(matches) == 0 {
			return s
		}

		var b strings.Builder
		b.Grow(len(s) + len(matches)*2)
		last := 0
		for _, m := range matches {
			b.WriteString(s[last:m[0]])
			b.Write(re.Expand(nil, tmpl, masked, m))
			last = m[1]
		}
		b.WriteString(s[last:])
		return b.String()
	}
}

// convertSingleQuotes turns single-quoted strings into double-quoted ones.
// Apostrophes inside double-quoted strings are left alone.
func convertSingleQuotes(s string) string {
	if !strings.Contains(s, "'") {
		return s
	}

	const (
		outside = iota
		inDouble
		inSingle
	)
	var b strings.Builder
	b.Grow(len(s))
	state := outside
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch state {
		case outside:
			switch ch {
			case '"':
				state = inDouble
				b.WriteByte(ch)
			case '\'':
				state = inSingle
				b.WriteByte('"')
			default:
				b.WriteByte(ch)
			}
		case inDouble:
			b.WriteByte(ch)
			if ch == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if ch == '"' {
				state = outside
			}
		case inSingle:
			switch {
			case ch == '\\' && i+1 < len(s) && s[i+1] == '\'':
				i++
				b.WriteByte('\'')
			case ch == '\\' && i+1 < len(s):
				b.WriteByte(ch)
				i++
				b.WriteByte(s[i])
			case ch == '"':
				b.WriteString(`\"`)
			case ch == '\'':
				state = outside
				b.WriteByte('"')
			default:
				b.WriteByte(ch)
			}
		}
	}
	return b.String()
}
