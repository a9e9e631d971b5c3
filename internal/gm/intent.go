package gm

import (
	"context"
	"log/slog"

	"github.com/jwebster45206/gm-engine/internal/services"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/lexicon"
	"github.com/jwebster45206/gm-engine/pkg/prompts"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

// Classifier turns free-text actions into descriptors with a structured
// model call, falling back to keyword detection.
type Classifier struct {
	llm    services.LLMService
	cfg    chat.ModelConfig
	lex    *lexicon.Lexicon
	logger *slog.Logger
}

func NewClassifier(llm services.LLMService, cfg chat.ModelConfig, lex *lexicon.Lexicon, logger *slog.Logger) *Classifier {
	return &Classifier{llm: llm, cfg: cfg, lex: lex, logger: logger}
}

// Classify returns the descriptor for action and whether the keyword
// fallback was used.
func (c *Classifier) Classify(ctx context.Context, action string, world *state.WorldState) (intent.Descriptor, bool) {
	messages, err := prompts.New().
		WithAction(action).
		WithWorldState(world).
		WithLanguage(c.lex.DisplayName).
		BuildIntent()
	if err != nil {
		c.logger.Warn("Failed to build intent prompt, using keyword fallback", "error", err)
		return intent.Fallback(action, c.lex), true
	}

	reply, err := c.llm.Complete(ctx, messages, c.cfg)
	if err != nil {
		c.logger.Warn("Intent classification call failed, using keyword fallback", "stage", "intent", "error", err)
		return intent.Fallback(action, c.lex), true
	}

	d, err := intent.Decode(reply)
	if err != nil {
		c.logger.Warn("Intent reply did not decode, using keyword fallback", "stage", "intent", "error", err)
		return intent.Fallback(action, c.lex), true
	}

	// A model that names an attack without a target still gets one from the text.
	if d.Category == intent.CategoryAttack && d.Target == "" {
		d.Target = c.lex.FindEnemy(action)
	}
	c.logger.Debug("Action classified", "action_type", d.Category, "requires_roll", d.RequiresRoll, "target", d.Target)
	return d, false
}
