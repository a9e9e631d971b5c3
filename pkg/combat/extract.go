package combat

import (
	"regexp"
	"strings"
)

const (
	// Marker introduces an embedded combat-state object in narrative text.
	Marker = "COMBAT_STATE:"

	tailWindow = 300
)

var (
	markerRe      = regexp.MustCompile(`(?i)COMBAT_STATE\s*:`)
	trailingFence = regexp.MustCompile("(?s)\\s*```[a-zA-Z]*\\s*$")
)

// Strategy names which extraction path produced an update.
type Strategy string

const (
	StrategyMarker     Strategy = "marker"
	StrategyTail       Strategy = "tail"
	StrategyStructured Strategy = "structured"
	StrategyNone       Strategy = "none"
)

// Result is the outcome of extracting combat state from a response.
type Result struct {
	Narrative string
	Update    Update
	Strategy  Strategy
}

// OK reports whether structured state was recovered.
func (r Result) OK() bool {
	return r.Strategy != StrategyNone
}

// Extract finds a combat-state object embedded in a narrative response.
// It tries the COMBAT_STATE marker first, then an object mentioning
// "in_combat" near the end of the text. When neither parses, the whole
// response is the narrative and current is returned untouched.
func Extract(response string, current Update) Result {
	if r, ok := extractAfterMarker(response, current); ok {
		return r
	}
	if r, ok := extractFromTail(response, current); ok {
		return r
	}
	return Result{Narrative: response, Update: current, Strategy: StrategyNone}
}

func extractAfterMarker(response string, current Update) (Result, bool) {
	loc := markerRe.FindStringIndex(response)
	if loc == nil {
		return Result{}, false
	}
	open := strings.IndexByte(response[loc[1]:], '{')
	if open < 0 {
		return Result{}, false
	}
	candidate, _, ok := ExtractObject(response, loc[1]+open)
	if !ok {
		return Result{}, false
	}
	u, ok := Decode(candidate, current)
	if !ok {
		return Result{}, false
	}
	return Result{
		Narrative: cleanNarrative(response[:loc[0]]),
		Update:    u,
		Strategy:  StrategyMarker,
	}, true
}

func extractFromTail(response string, current Update) (Result, bool) {
	from := max(len(response)-tailWindow, 0)
	for i := from; i < len(response); i++ {
		if response[i] != '{' {
			continue
		}
		candidate, _, ok := ExtractObject(response, i)
		if !ok || !mentionsInCombat(candidate) {
			continue
		}
		u, ok := Decode(candidate, current)
		if !ok {
			continue
		}
		return Result{
			Narrative: cleanNarrative(response[:i]),
			Update:    u,
			Strategy:  StrategyTail,
		}, true
	}
	return Result{}, false
}

func mentionsInCombat(s string) bool {
	return strings.Contains(s, `"in_combat"`) || strings.Contains(s, `'in_combat'`)
}

// ParseStructured reads the reply of a JSON-only combat-state call. Code
// fences and stray prose are tolerated; if no leading object parses, the
// embedded-object strategies are tried before giving up.
func ParseStructured(text string, defaults Update) Result {
	body := strings.TrimSpace(text)
	if open := strings.IndexByte(body, '{'); open >= 0 {
		if candidate, _, ok := ExtractObject(body, open); ok {
			if u, ok := Decode(candidate, defaults); ok {
				return Result{Update: u, Strategy: StrategyStructured}
			}
		}
	}
	r := Extract(body, defaults)
	if r.OK() {
		r.Narrative = ""
	}
	return r
}

// StripState removes any combat-state marker block and trailing code fence
// from narrative text.
func StripState(narrative string) string {
	if loc := markerRe.FindStringIndex(narrative); loc != nil {
		narrative = narrative[:loc[0]]
	}
	return cleanNarrative(narrative)
}

func cleanNarrative(s string) string {
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
