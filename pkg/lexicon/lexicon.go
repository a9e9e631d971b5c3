// Package lexicon holds the language-tagged keyword tables and message
// templates used by the fallback classifiers and the response text.
package lexicon

import (
	"embed"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed languages/*.yaml
var builtin embed.FS

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "en"

// Keywords are lowercase stems matched as substrings of lowercased text.
type Keywords struct {
	Attack     []string `yaml:"attack"`
	SkillCheck []string `yaml:"skill_check"`
	Spell      []string `yaml:"spell"`
	Dialogue   []string `yaml:"dialogue"`
	Discovery  []string `yaml:"discovery"`
}

// Messages are the localized strings shown to players or written to the
// change log. Templates use fmt verbs.
type Messages struct {
	CombatStarted     string `yaml:"combat_started"`
	CombatEnded       string `yaml:"combat_ended"`
	EnemyDamage       string `yaml:"enemy_damage"` // %d total
	UnknownEnemy      string `yaml:"unknown_enemy"`
	NarrativeFallback string `yaml:"narrative_fallback"` // %s action, %s outcome
	Success           string `yaml:"success"`
	Failure           string `yaml:"failure"`
	Apology           string `yaml:"apology"`
	CombatDisabled    string `yaml:"combat_disabled"`
	RateLimited       string `yaml:"rate_limited"`
	ModelUnavailable  string `yaml:"model_unavailable"`
	MemoryNone        string `yaml:"memory_none"`
	MemoryUnavailable string `yaml:"memory_unavailable"`
	MemoryRelevant    string `yaml:"memory_relevant"`
	MemoryRecent      string `yaml:"memory_recent"`
	Attack            string `yaml:"attack"`
	Check             string `yaml:"check"`
	Hit               string `yaml:"hit"`
	Miss              string `yaml:"miss"`
	Critical          string `yaml:"critical"`
	Fumble            string `yaml:"fumble"`
	Damage            string `yaml:"damage"`
	Advantage         string `yaml:"advantage"`
	Disadvantage      string `yaml:"disadvantage"`
	EnemyAttack       string `yaml:"enemy_attack"` // %s attacker, %d damage
	Status            string `yaml:"status"`       // %d hp, %d max, %s location
	Enemies           string `yaml:"enemies"`      // %s joined names
	Unconscious       string `yaml:"unconscious"`
}

// Lexicon is one language's keyword tables and messages.
type Lexicon struct {
	Language      string   `yaml:"language"`
	DisplayName   string   `yaml:"display_name"`
	Keywords      Keywords `yaml:"keywords"`
	Enemies       []string `yaml:"enemies"`
	Entities      []string `yaml:"entities"`
	TargetPattern string   `yaml:"target_pattern"`
	Messages      Messages `yaml:"messages"`

	target *regexp.Regexp
}

// Default returns the embedded lexicon for lang.
func Default(lang string) (*Lexicon, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	data, err := builtin.ReadFile("languages/" + strings.ToLower(lang) + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no built-in lexicon for language %q", lang)
	}
	return Parse(data)
}

// MustDefault is Default for package initialization and tests.
func MustDefault(lang string) *Lexicon {
	lex, err := Default(lang)
	if err != nil {
		panic(err)
	}
	return lex
}

// Load reads a lexicon from a YAML file.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates lexicon YAML.
func Parse(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

// Languages lists the embedded lexicon languages.
func Languages() []string {
	entries, err := builtin.ReadDir("languages")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(langs)
	return langs
}

// Validate checks required tables and compiles the target pattern.
func (l *Lexicon) Validate() error {
	if l.Language == "" {
		return fmt.Errorf("lexicon language is required")
	}
	if _, err := language.Parse(l.Language); err != nil {
		return fmt.Errorf("invalid lexicon language %q: %w", l.Language, err)
	}
	required := map[string][]string{
		"keywords.attack":      l.Keywords.Attack,
		"keywords.skill_check": l.Keywords.SkillCheck,
		"keywords.spell":       l.Keywords.Spell,
		"keywords.dialogue":    l.Keywords.Dialogue,
		"keywords.discovery":   l.Keywords.Discovery,
		"enemies":              l.Enemies,
		"entities":             l.Entities,
	}
	for name, words := range required {
		if len(words) == 0 {
			return fmt.Errorf("lexicon %s: %s cannot be empty", l.Language, name)
		}
	}
	if l.Messages.NarrativeFallback == "" || l.Messages.UnknownEnemy == "" || l.Messages.Apology == "" {
		return fmt.Errorf("lexicon %s: narrative_fallback, unknown_enemy and apology messages are required", l.Language)
	}
	if l.TargetPattern != "" {
		re, err := regexp.Compile(l.TargetPattern)
		if err != nil {
			return fmt.Errorf("lexicon %s: invalid target_pattern: %w", l.Language, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("lexicon %s: target_pattern needs a capture group", l.Language)
		}
		l.target = re
	}
	return nil
}

// Tag returns the BCP 47 tag for the lexicon language.
func (l *Lexicon) Tag() language.Tag {
	tag, err := language.Parse(l.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// ContainsAny reports whether text contains any of the stems.
func ContainsAny(text string, stems []string) bool {
	lower := strings.ToLower(text)
	for _, s := range stems {
		if s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// FindEntities returns the vocabulary entries found in text, without duplicates,
// in vocabulary order.
func (l *Lexicon) FindEntities(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0)
	for _, e := range l.Entities {
		if e != "" && strings.Contains(lower, e) && !slices.Contains(found, e) {
			found = append(found, e)
		}
	}
	return found
}

// FindEnemy infers an enemy name from an action: a known enemy name first,
// then the target pattern. It returns "" when nothing matches.
func (l *Lexicon) FindEnemy(action string) string {
	lower := strings.ToLower(action)
	for _, e := range l.Enemies {
		if e != "" && strings.Contains(lower, e) {
			return e
		}
	}
	if l.target != nil {
		if m := l.target.FindStringSubmatch(lower); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
