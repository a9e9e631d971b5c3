// Package gm runs a game turn: intent, mechanics, narration, combat state,
// damage and memory, with a degraded fallback at every model or store call.
package gm

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/jwebster45206/gm-engine/internal/config"
	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/combat"
	"github.com/jwebster45206/gm-engine/pkg/dice"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/memory"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"github.com/jwebster45206/gm-engine/pkg/storage"
)

// Stage names reported in Outcome.Degraded.
const (
	StageMemory      = "memory"
	StageIntent      = "intent"
	StageNarrative   = "narrative"
	StageCombatState = "combat_state"
	StagePersist     = "persist"
)

// Turn is one player action with the state it acts on. Character and World
// are not modified.
type Turn struct {
	CharacterID   uuid.UUID
	SessionID     *uuid.UUID
	Action        string
	Character     *character.Character
	World         *state.WorldState
	CombatEnabled bool
}

// Outcome is the result of a turn.
type Outcome struct {
	Message     string
	Narrative   string
	Character   *character.Character
	World       *state.WorldState
	Intent      intent.Descriptor
	Mechanics   rules.Result
	Changes     []string
	Degraded    []string
	DamageTaken int
	Persisted   bool
	// Failed is set when the turn aborted and nothing changed.
	Failed bool
}

// Options configure an Orchestrator.
type Options struct {
	Stages   config.Stages
	Memory   config.MemoryConfig
	Rules    rules.Options
	Lexicon  *lexicon.Lexicon
	Roller   *dice.Roller
	Memories memory.Store // nil disables memory
}

// Orchestrator is the error boundary for a turn.
type Orchestrator struct {
	store      storage.Storage
	classifier *Classifier
	narrator   *Narrator
	resolver   *rules.Resolver
	merger     *state.Merger
	memory     *MemoryManager
	rules      rules.Options
	lex        *lexicon.Lexicon
	logger     *slog.Logger
}

func NewOrchestrator(llm services.LLMService, store storage.Storage, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	lex := opts.Lexicon
	if lex == nil {
		lex = lexicon.MustDefault(lexicon.DefaultLanguage)
	}
	roller := opts.Roller
	if roller == nil {
		roller = dice.NewRoller(nil)
	}

	o := &Orchestrator{
		store:      store,
		classifier: NewClassifier(llm, opts.Stages.Intent, lex, logger),
		narrator:   NewNarrator(llm, opts.Stages.Narrative, opts.Stages.CombatState, lex, roller, logger),
		resolver:   rules.NewResolver(roller),
		merger:     state.NewMerger(lex),
		rules:      opts.Rules,
		lex:        lex,
		logger:     logger,
	}
	if opts.Memories != nil {
		o.memory = NewMemoryManager(opts.Memories, opts.Memory, lex, logger)
	}
	return o
}

// ProcessAction runs the turn pipeline. It never returns an error and never
// panics: failed stages degrade, and an unexpected failure yields the
// apology message with the input state unchanged.
func (o *Orchestrator) ProcessAction(ctx context.Context, turn Turn) (out *Outcome) {
	log := o.logger.With("character_id", turn.CharacterID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Turn panicked", "panic", r, "stack", string(debug.Stack()))
			out = o.abort(turn)
		}
	}()

	if turn.Character == nil {
		log.Error("Turn has no character")
		return o.abort(turn)
	}

	char := turn.Character.Clone()
	world := turn.World.Clone()
	if world == nil {
		world = state.Default()
	}
	world.Normalize()

	out = &Outcome{}

	// 1. memory
	digest := ""
	if o.memory != nil && turn.CharacterID != uuid.Nil {
		var ok bool
		digest, ok = o.memory.Digest(ctx, turn.CharacterID, turn.SessionID, turn.Action)
		if !ok {
			out.Degraded = append(out.Degraded, StageMemory)
		}
	}

	// 2-3. intent and mechanics
	if turn.CombatEnabled {
		var fellBack bool
		out.Intent, fellBack = o.classifier.Classify(ctx, turn.Action, world)
		if fellBack {
			out.Degraded = append(out.Degraded, StageIntent)
		}
		out.Mechanics = o.resolver.Resolve(out.Intent, char, o.rules)
	} else {
		out.Intent = intent.NarrativeOnly()
		out.Mechanics = rules.CombatDisabledResult()
	}
	log.Info("Mechanics resolved",
		"action_type", out.Intent.Category,
		"kind", out.Mechanics.Kind,
		"success", out.Mechanics.Success())

	// 4. narrative, then combat state
	scene := Scene{
		Action:     turn.Action,
		Descriptor: out.Intent,
		Mechanics:  out.Mechanics,
		World:      world,
		Character:  char,
		Memories:   digest,
	}
	narration := o.narrator.Narrate(ctx, scene)
	out.Narrative = narration.Text
	if narration.Failed {
		out.Degraded = append(out.Degraded, StageNarrative)
		if errors.Is(narration.Err, services.ErrRateLimited) {
			out.Degraded = append(out.Degraded, services.Placeholder(narration.Err, o.lex))
		}
	}

	update := world.CombatView()
	update.EnemyAttacks = nil
	if turn.CombatEnabled {
		var ok bool
		update, ok = o.narrator.CombatState(ctx, scene, narration.Embedded)
		if !ok {
			out.Degraded = append(out.Degraded, StageCombatState)
		}
		fixed, corrected := EnforceAttackConsistency(update, out.Intent.Category, turn.Action, out.Intent.Target, o.lex)
		if corrected {
			logCorrection(log, update, fixed)
			update = fixed
		}
	}

	// 5. merge and damage
	merged, changes := o.merger.Merge(world, update, out.Intent.Category, out.Mechanics)
	out.Changes = changes
	if turn.CombatEnabled {
		char, out.DamageTaken = combat.ApplyEnemyAttacks(char, merged.EnemyAttacks)
	}
	applyMechanicsEffects(char, out.Mechanics)

	// 6. response
	out.Message = AssembleResponse(ResponseParts{
		Narrative: out.Narrative,
		Mechanics: out.Mechanics,
		Character: char,
		World:     merged,
		Attacks:   merged.EnemyAttacks,
	}, o.lex)

	merged.ClearTransient()
	out.Character = char
	out.World = merged

	// persistence happens before the message is delivered
	if turn.CharacterID != uuid.Nil {
		if _, err := o.store.SaveTurn(ctx, char, merged); err != nil {
			log.Error("Failed to persist turn, keeping previous state", "error", err)
			out.Degraded = append(out.Degraded, StagePersist)
			out.Character = turn.Character.Clone()
			out.World = turn.World.Clone()
		} else {
			out.Persisted = true
		}
	}

	// 7. memory write, only for turns that were saved
	if o.memory != nil && out.Persisted && turn.SessionID != nil {
		o.memory.Remember(ctx, Record{
			CharacterID: turn.CharacterID,
			SessionID:   *turn.SessionID,
			Action:      turn.Action,
			Narrative:   out.Narrative,
			Category:    out.Intent.Category,
			Mechanics:   out.Mechanics,
			Location:    merged.Location,
		})
	}

	log.Info("Turn complete",
		"persisted", out.Persisted,
		"changes", out.Changes,
		"degraded", out.Degraded,
		"damage_taken", out.DamageTaken,
		"hp", char.HP)
	return out
}

func (o *Orchestrator) abort(turn Turn) *Outcome {
	return &Outcome{
		Message:   o.lex.Messages.Apology,
		Character: turn.Character.Clone(),
		World:     turn.World.Clone(),
		Failed:    true,
	}
}

// applyMechanicsEffects is where rolled outcomes would change the character
// directly (healing potions, conditions). Nothing does yet.
func applyMechanicsEffects(_ *character.Character, _ rules.Result) {}
