package gm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/combat"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/prompts"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

// Counter-attack damage used when the combat-state call fails: 4 + d8,
// so 5 to 12.
const (
	fallbackDamageBase = 4
	fallbackDamageDie  = dice.D8
)

// Scene is what the narrator needs to know about the turn.
type Scene struct {
	Action     string
	Descriptor intent.Descriptor
	Mechanics  rules.Result
	World      *state.WorldState
	Character  *character.Character
	Memories   string
}

func (s Scene) builder(lang string) *prompts.Builder {
	return prompts.New().
		WithAction(s.Action).
		WithDescriptor(s.Descriptor).
		WithMechanics(s.Mechanics).
		WithWorldState(s.World).
		WithCharacter(s.Character).
		WithMemories(s.Memories).
		WithLanguage(lang)
}

// Narration is the outcome of the narrative call.
type Narration struct {
	Text string
	// Embedded is combat state the model wrote into the narrative anyway.
	Embedded combat.Result
	Failed   bool
	Err      error
}

// Narrator runs the free-text narrative call and the structured
// combat-state call, each with its own fallback.
type Narrator struct {
	llm         services.LLMService
	narrative   chat.ModelConfig
	combatState chat.ModelConfig
	lex         *lexicon.Lexicon
	roller      *dice.Roller
	logger      *slog.Logger
}

func NewNarrator(llm services.LLMService, narrative, combatState chat.ModelConfig, lex *lexicon.Lexicon, roller *dice.Roller, logger *slog.Logger) *Narrator {
	if roller == nil {
		roller = dice.NewRoller(nil)
	}
	return &Narrator{
		llm:         llm,
		narrative:   narrative,
		combatState: combatState,
		lex:         lex,
		roller:      roller,
		logger:      logger,
	}
}

// Narrate produces the story text. On failure it returns the templated
// "You <action>. Success!" sentence.
func (n *Narrator) Narrate(ctx context.Context, scene Scene) Narration {
	messages, err := scene.builder(n.lex.DisplayName).BuildNarrative()
	if err != nil {
		return n.fallbackNarration(scene, fmt.Errorf("failed to build narrative prompt: %w", err))
	}

	reply, err := n.llm.Complete(ctx, messages, n.narrative)
	if err != nil {
		return n.fallbackNarration(scene, err)
	}

	current := scene.World.CombatView()
	embedded := combat.Extract(reply, current)
	text := combat.StripState(embedded.Narrative)
	if text == "" {
		return n.fallbackNarration(scene, errors.New("empty narrative"))
	}
	return Narration{Text: text, Embedded: embedded}
}

func (n *Narrator) fallbackNarration(scene Scene, err error) Narration {
	n.logger.Warn("Narrative call failed, using template", "stage", "narrative", "error", err)
	outcome := n.lex.Messages.Success
	if !scene.Mechanics.Success() {
		outcome = n.lex.Messages.Failure
	}
	return Narration{
		Text:     fmt.Sprintf(n.lex.Messages.NarrativeFallback, scene.Action, outcome),
		Embedded: combat.Result{Update: scene.World.CombatView(), Strategy: combat.StrategyNone},
		Failed:   true,
		Err:      err,
	}
}

// CombatState asks the model for the combat update as JSON. When the reply
// is unusable it falls back to state the narrative embedded, then to the
// attack heuristic. The bool reports whether the structured call succeeded.
func (n *Narrator) CombatState(ctx context.Context, scene Scene, embedded combat.Result) (combat.Update, bool) {
	current := scene.World.CombatView()

	messages, err := scene.builder(n.lex.DisplayName).BuildCombatState()
	if err == nil {
		var reply string
		reply, err = n.llm.Complete(ctx, messages, n.combatState)
		if err == nil {
			if r := combat.ParseStructured(reply, current); r.OK() {
				n.logger.Debug("Combat state parsed", "strategy", r.Strategy)
				return r.Update, true
			}
			err = errors.New("no parseable combat state in reply")
		}
	}
	n.logger.Warn("Combat-state call failed", "stage", "combat_state", "error", err)

	if embedded.OK() {
		n.logger.Info("Using combat state embedded in the narrative", "strategy", embedded.Strategy)
		return embedded.Update, false
	}
	return n.fallbackCombatState(scene, current), false
}

// fallbackCombatState starts combat for an attack made outside combat,
// adding a counter-attack only when the player missed. Anything else,
// including an attack in a fight already under way, keeps the current state.
func (n *Narrator) fallbackCombatState(scene Scene, current combat.Update) combat.Update {
	if scene.Descriptor.Category != intent.CategoryAttack || current.InCombat {
		return current
	}
	enemy := inferEnemy(scene.Action, scene.Descriptor.Target, n.lex)
	u := combat.Update{
		InCombat:     true,
		Enemies:      []string{enemy},
		EnemyAttacks: []combat.EnemyAttack{},
	}
	if !scene.Mechanics.Success() {
		dmg := n.roller.Roll(fallbackDamageDie, fallbackDamageBase).Total
		u.EnemyAttacks = append(u.EnemyAttacks, combat.EnemyAttack{Attacker: enemy, Damage: dmg})
	}
	return u
}
