package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/intent"
	"github.com/jwebster45206/gm-engine/pkg/rules"
	"github.com/jwebster45206/gm-engine/pkg/state"
)

const defaultLanguage = "English"

// Builder constructs chat messages for each model stage using a fluent
// interface.
type Builder struct {
	action     string
	world      *state.WorldState
	character  *character.Character
	descriptor *intent.Descriptor
	mechanics  *rules.Result
	memories   string
	language   string
	messages   []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		language: defaultLanguage,
		messages: make([]chat.ChatMessage, 0),
	}
}

// WithAction sets the player's action text.
func (b *Builder) WithAction(action string) *Builder {
	b.action = strings.TrimSpace(action)
	return b
}

func (b *Builder) WithWorldState(ws *state.WorldState) *Builder {
	b.world = ws
	return b
}

func (b *Builder) WithCharacter(c *character.Character) *Builder {
	b.character = c
	return b
}

func (b *Builder) WithDescriptor(d intent.Descriptor) *Builder {
	b.descriptor = &d
	return b
}

func (b *Builder) WithMechanics(r rules.Result) *Builder {
	b.mechanics = &r
	return b
}

// WithMemories sets the memory digest shown to the narrator.
func (b *Builder) WithMemories(digest string) *Builder {
	b.memories = digest
	return b
}

// WithLanguage sets the language the model should answer in.
func (b *Builder) WithLanguage(displayName string) *Builder {
	if displayName != "" {
		b.language = displayName
	}
	return b
}

// BuildIntent returns the messages for the intent classification call.
func (b *Builder) BuildIntent() ([]chat.ChatMessage, error) {
	if b.action == "" {
		return nil, fmt.Errorf("action is required")
	}
	b.messages = []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: fmt.Sprintf(IntentSystemPrompt, b.language)},
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf(IntentUserPrompt, WorldContext(b.world), b.action)},
	}
	return b.messages, nil
}

// BuildNarrative returns the messages for the narrative call.
func (b *Builder) BuildNarrative() ([]chat.ChatMessage, error) {
	if err := b.requireTurn(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Player action: %q\n\n", b.action)
	fmt.Fprintf(&sb, "Mechanics result: %s\n", MechanicsSummary(*b.mechanics))
	if len(b.mechanics.Hints) > 0 {
		fmt.Fprintf(&sb, "Special effects: %s\n", strings.Join(b.mechanics.Hints, ", "))
	}
	if b.world.InCombat && len(b.world.Enemies) > 0 {
		fmt.Fprintf(&sb, "\nCURRENT FIGHT: the player is fighting %s\n", strings.Join(b.world.Enemies, ", "))
	}
	fmt.Fprintf(&sb, "Location: %s\n", b.world.Location)
	if b.character != nil {
		fmt.Fprintf(&sb, "Player: %s, HP %d/%d\n", b.character.Name, b.character.HP, b.character.MaxHP)
	}
	if b.memories != "" {
		sb.WriteString("\n")
		sb.WriteString(b.memories)
		sb.WriteString("\n")
	}
	sb.WriteString("\nDescribe what happens.")

	b.messages = []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: fmt.Sprintf(NarratorSystemPrompt, b.language)},
		{Role: chat.ChatRoleUser, Content: sb.String()},
	}
	return b.messages, nil
}

// BuildCombatState returns the messages for the structured combat-state call.
func (b *Builder) BuildCombatState() ([]chat.ChatMessage, error) {
	if err := b.requireTurn(); err != nil {
		return nil, err
	}

	category := b.mechanics.Category
	if b.descriptor != nil {
		category = b.descriptor.Category
	}
	outcome := "success (hit)"
	if !b.mechanics.Success() {
		outcome = "failure (miss)"
	}
	enemies := "none"
	if len(b.world.Enemies) > 0 {
		enemies = strings.Join(b.world.Enemies, ", ")
	}
	active := "no"
	if b.world.InCombat {
		active = "yes"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Player action: %q\n", b.action)
	fmt.Fprintf(&sb, "Action type: %s\n", category)
	fmt.Fprintf(&sb, "Result: %s\n", outcome)
	fmt.Fprintf(&sb, "Current enemies: %s\n", enemies)
	fmt.Fprintf(&sb, "Combat active: %s\n\n", active)
	fmt.Fprintf(&sb, CombatStateRules, b.language)

	b.messages = []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: CombatStateSystemPrompt},
		{Role: chat.ChatRoleUser, Content: sb.String()},
	}
	return b.messages, nil
}

func (b *Builder) requireTurn() error {
	if b.action == "" {
		return fmt.Errorf("action is required")
	}
	if b.world == nil {
		return fmt.Errorf("world state is required")
	}
	if b.mechanics == nil {
		return fmt.Errorf("mechanics result is required")
	}
	return nil
}

// WorldContext summarizes the world for the classifier.
func WorldContext(ws *state.WorldState) string {
	if ws == nil {
		return "Location: unknown"
	}
	var lines []string
	if ws.InCombat && len(ws.Enemies) > 0 {
		lines = append(lines, "Player is in combat with: "+strings.Join(ws.Enemies, ", "))
	}
	location := ws.Location
	if location == "" {
		location = "unknown"
	}
	lines = append(lines, "Location: "+location)
	return strings.Join(lines, "\n")
}
