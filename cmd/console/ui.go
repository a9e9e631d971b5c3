package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/gm-engine/pkg/character"
	"github.com/jwebster45206/gm-engine/pkg/chat"
	"github.com/jwebster45206/gm-engine/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "GM"
	PlaceHolderText = "What do you do?"
)

type entryKind int

const (
	entryPlayer entryKind = iota
	entryGM
	entryInfo
	entryError
)

type entry struct {
	kind entryKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	character    *character.Character
	world        *state.WorldState
	transcript   []entry
	lastMessage  string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	showQuitModal bool
	progressTick  int
}

type turnMsg struct {
	response *chat.TurnResponse
	err      error
}

type resetMsg struct {
	response *CharacterResponse
	err      error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // yellow
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, cr *CharacterResponse) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = chat.MaxActionLength
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	world := cr.WorldState
	if world == nil {
		world = state.Default()
	}

	return ConsoleUI{
		config:       cfg,
		client:       client,
		character:    cr.Character,
		world:        world,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: viewport.New(20, 20),
		transcript: []entry{{
			kind: entryInfo,
			text: fmt.Sprintf("%s awakens at %s. Type /help for commands.", cr.Character.Name, world.Location),
		}},
	}
}

func writeMetadata(c *character.Character, ws *state.WorldState) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")
	content.WriteString(c.Name + "\n")
	content.WriteString(fmt.Sprintf("Level %d\n\n", c.Level))
	content.WriteString(fmt.Sprintf("HP: %d/%d\n", c.HP, c.MaxHP))
	content.WriteString(fmt.Sprintf("AC: %d\n", c.AC))
	content.WriteString(fmt.Sprintf("Gold: %d\n\n", c.Gold))

	content.WriteString("Location:\n")
	content.WriteString(ws.Location + "\n\n")

	if ws.InCombat {
		content.WriteString(combatStyle.Render("IN COMBAT") + "\n")
		for _, e := range ws.Enemies {
			content.WriteString("• " + e + "\n")
		}
	} else {
		content.WriteString("Not in combat\n")
	}

	content.WriteString("\nCommands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• /copy: Copy reply\n")
	content.WriteString("• /reset: New adventure\n")
	content.WriteString("• Ctrl+C: Quit\n")
	return content.String()
}

func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("GM ENGINE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, e := range m.transcript {
		switch e.kind {
		case entryPlayer:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(e.text, chatWidth-6) + "\n\n")
		case entryGM:
			content.WriteString(formatNarratorResponse(e.text, chatWidth) + "\n\n")
		case entryError:
			content.WriteString(errorStyle.Render("Error: "+e.text) + "\n\n")
		default:
			content.WriteString(promptStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeMetadata(m.character, m.world))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.loading = true
			m.progressTick = 0
			m.transcript = append(m.transcript, entry{kind: entryPlayer, text: input})
			m.writeChatContent()
			return m, tea.Batch(m.sendAction(input), progressTick())
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{kind: entryError, text: msg.err.Error()})
		} else {
			m.lastMessage = msg.response.Message
			m.transcript = append(m.transcript, entry{kind: entryGM, text: msg.response.Message})
			if msg.response.Character != nil {
				m.character = msg.response.Character
			}
			if msg.response.WorldState != nil {
				m.world = msg.response.WorldState
			}
			m.metaViewport.SetContent(writeMetadata(m.character, m.world))
		}
		m.writeChatContent()
		return m, nil

	case resetMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{kind: entryError, text: msg.err.Error()})
		} else {
			m.character = msg.response.Character
			if msg.response.WorldState != nil {
				m.world = msg.response.WorldState
			}
			m.transcript = append(m.transcript, entry{kind: entryInfo, text: "A new adventure begins."})
			m.metaViewport.SetContent(writeMetadata(m.character, m.world))
		}
		m.writeChatContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func formatNarratorResponse(response string, width int) string {
	prefix := AgentName + ": "
	wrapped := wordwrap.String(response, max(width-len(prefix), 10))
	return narratorStyle.Render(prefix) + wrapped
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.transcript = append(m.transcript, entry{kind: entryInfo, text: "Commands: /copy copies the last reply, /reset starts a new adventure, Ctrl+C quits. Anything else is your action."})

	case "/copy":
		if m.lastMessage == "" {
			m.transcript = append(m.transcript, entry{kind: entryInfo, text: "Nothing to copy yet."})
		} else if err := clipboard.WriteAll(m.lastMessage); err != nil {
			m.transcript = append(m.transcript, entry{kind: entryError, text: "clipboard unavailable: " + err.Error()})
		} else {
			m.transcript = append(m.transcript, entry{kind: entryInfo, text: "Copied the last reply to the clipboard."})
		}

	case "/reset":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.reset(), progressTick())

	default:
		m.transcript = append(m.transcript, entry{kind: entryInfo, text: "Unknown command " + input + ". Try /help."})
	}

	m.writeChatContent()
	return m, nil
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	return func() tea.Msg {
		resp, err := playTurn(m.client, m.config.APIBaseURL, m.character.ID, action)
		return turnMsg{resp, err}
	}
}

func (m ConsoleUI) reset() tea.Cmd {
	return func() tea.Msg {
		resp, err := resetCharacter(m.client, m.config.APIBaseURL, m.character.ID)
		return resetMsg{resp, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your character is saved after every turn.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar draws the animated bar shown while a turn is running.
func (m ConsoleUI) renderProgressBar() string {
	usable := min(max(m.chatViewport.Width-6, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
