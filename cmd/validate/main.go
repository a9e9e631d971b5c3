package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/gm-engine/internal/config"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
)

var languageFilename = regexp.MustCompile(`^[a-z]{2,3}(_[a-z]+)?$`)

func main() {
	checkEnv := flag.Bool("env", false, "also load and validate configuration from the environment")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-env] [lexicon.yaml ...]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "With no files, the built-in lexicons and default stages are checked.")
		flag.PrintDefaults()
	}
	flag.Parse()

	v := &Validator{}
	if flag.NArg() == 0 {
		v.validateBuiltins()
	}
	for _, path := range flag.Args() {
		v.validateFile(path)
	}
	if *checkEnv {
		v.validateEnv()
	}

	if len(v.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", strings.Join(v.errors, "\n"))
		os.Exit(1)
	}
	fmt.Println("All checks passed!")
}

type Validator struct {
	errors []string
}

func (v *Validator) addError(format string, args ...any) {
	v.errors = append(v.errors, "  - "+fmt.Sprintf(format, args...))
}

func (v *Validator) validateBuiltins() {
	for _, lang := range lexicon.Languages() {
		fmt.Printf("Validating built-in lexicon %s...\n", lang)
		lex, err := lexicon.Default(lang)
		if err != nil {
			v.addError("%s: %v", lang, err)
			continue
		}
		v.validateTemplates(lang, lex)
	}
	fmt.Println("Validating default stages...")
	if err := config.DefaultStages().Validate(); err != nil {
		v.addError("default stages: %v", err)
	}
}

func (v *Validator) validateFile(path string) {
	fmt.Printf("Validating %s...\n", path)

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext != ".yaml" && ext != ".yml" {
		v.addError("%s: lexicon file must have .yaml extension", base)
		return
	}
	name := strings.TrimSuffix(base, ext)
	if !languageFilename.MatchString(name) {
		v.addError("%s: filename must be a lowercase language code (e.g. en.yaml, pt_br.yaml)", base)
	}

	lex, err := lexicon.Load(path)
	if err != nil {
		v.addError("%s: %v", base, err)
		return
	}
	if lex.Language != "" && lex.Language != strings.SplitN(name, "_", 2)[0] {
		v.addError("%s: language %q does not match filename", base, lex.Language)
	}
	v.validateTemplates(base, lex)
}

// validateTemplates checks that the fmt templates carry the verbs the
// response assembler fills in.
func (v *Validator) validateTemplates(name string, lex *lexicon.Lexicon) {
	m := lex.Messages
	want := []struct {
		field    string
		template string
		verbs    []string
	}{
		{"enemy_damage", m.EnemyDamage, []string{"%d"}},
		{"narrative_fallback", m.NarrativeFallback, []string{"%s", "%s"}},
		{"enemy_attack", m.EnemyAttack, []string{"%s", "%d"}},
		{"status", m.Status, []string{"%d", "%d", "%s"}},
		{"enemies", m.Enemies, []string{"%s"}},
	}
	for _, w := range want {
		rest := w.template
		for _, verb := range w.verbs {
			i := strings.Index(rest, verb)
			if i < 0 {
				v.addError("%s: message %s must contain %s in order %v", name, w.field, verb, w.verbs)
				break
			}
			rest = rest[i+len(verb):]
		}
	}
}

func (v *Validator) validateEnv() {
	fmt.Println("Validating environment configuration...")
	cfg, err := config.Load()
	if err != nil {
		v.addError("config: %v", err)
		return
	}
	if cfg.LexiconPath != "" {
		v.validateFile(cfg.LexiconPath)
	} else if _, err := lexicon.Default(cfg.Language); err != nil {
		v.addError("language %q: %v", cfg.Language, err)
	}
}
