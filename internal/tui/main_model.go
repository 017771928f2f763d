package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

type uiMode int

const (
	modeProse uiMode = iota
	modeWorkshop
)

func (m uiMode) title() string {
	if m == modeWorkshop {
		return "workshop"
	}
	return "prose"
}

type focusArea int

const (
	focusInput focusArea = iota
	focusTree
)

// Message is one rendered line group in the chat pane.
type Message struct {
	ID        string
	Role      string
	Content   string
	Timestamp time.Time
}

type spinMsg struct{}

// sendDoneMsg carries a finished background send back onto the UI loop.
type sendDoneMsg struct {
	mode uiMode
	res  app.TaskResult
}

type speakDoneMsg struct{ err error }

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var povOptions = []string{"First Person", "Second Person", "Third Person"}
var tenseOptions = []string{"Past Tense", "Present Tense"}

type MainModel struct {
	studio *app.Studio
	mode   uiMode

	theme Theme
	help  helpModel

	width  int
	height int
	ready  bool

	focus       focusArea
	showContext bool
	showHelp    bool

	tree   *treePanel
	input  textarea.Model
	chatVP viewport.Model

	// proseMessages is local display state; workshop messages render
	// straight from the conversation so summarization shows through.
	proseMessages []Message

	running    bool
	spinnerPos int
	notice     string
}

func NewMainModel(studio *app.Studio) *MainModel {
	ta := textarea.New()
	ta.Placeholder = "Write action beats, then press Enter."
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false

	// Keep textarea styling minimal; the input container carries the look.
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()

	t := NewTheme()
	tree := newTreePanel(t)
	tree.SetForest(studio.Forest)

	return &MainModel{
		studio:      studio,
		mode:        modeProse,
		theme:       t,
		help:        newHelpModel(t),
		width:       100,
		height:      30,
		focus:       focusInput,
		showContext: true,
		tree:        tree,
		input:       ta,
	}
}

func (m *MainModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *MainModel) busy() bool {
	return m.running || m.studio.ProseBusy() || m.studio.Workshop.Busy()
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(m.width)

		layout := m.computeLayout()
		if !m.ready {
			m.chatVP = viewport.New(layout.chatW, layout.chatH)
			m.chatVP.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.chatVP.Width = layout.chatW
			m.chatVP.Height = layout.chatH
		}
		m.tree.SetSize(layout.treeW, layout.treeH)
		m.input.SetWidth(max(10, layout.inputW))
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		keys := m.help.keys
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.ToggleHelp):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.NextMode):
			if m.mode == modeProse {
				m.mode = modeWorkshop
				m.input.Placeholder = "Talk through the story, then press Enter."
			} else {
				m.mode = modeProse
				m.input.Placeholder = "Write action beats, then press Enter."
			}
			m.refreshChat()
			return m, nil

		case key.Matches(msg, keys.ToggleContext):
			m.showContext = !m.showContext
			if !m.showContext && m.focus == focusTree {
				m.focus = focusInput
				m.input.Focus()
			}
			m.resize()
			return m, nil

		case key.Matches(msg, keys.FocusNext):
			if m.showContext {
				if m.focus == focusInput {
					m.focus = focusTree
					m.input.Blur()
				} else {
					m.focus = focusInput
					m.input.Focus()
				}
			}
			return m, nil

		case key.Matches(msg, keys.Reload):
			if err := m.studio.ReloadCompendium(); err != nil {
				m.notice = "compendium reload failed: " + err.Error()
			} else {
				m.tree.SetForest(m.studio.Forest)
				m.notice = "compendium reloaded"
			}
			return m, nil

		case key.Matches(msg, keys.CyclePOV):
			m.studio.POV = nextOption(m.studio.POV, povOptions)
			return m, nil

		case key.Matches(msg, keys.CycleTense):
			m.studio.Tense = nextOption(m.studio.Tense, tenseOptions)
			return m, nil

		case key.Matches(msg, keys.Speak):
			return m, m.speakLast()
		}

		if m.focus == focusTree {
			switch {
			case key.Matches(msg, keys.TreeUp):
				m.tree.MoveUp()
			case key.Matches(msg, keys.TreeDown):
				m.tree.MoveDown()
			case key.Matches(msg, keys.TreeToggle):
				m.tree.Toggle()
			case key.Matches(msg, keys.TreePrevTab):
				m.tree.SwitchTab(tabProject)
			case key.Matches(msg, keys.TreeNextTab):
				m.tree.SwitchTab(tabCompendium)
			}
			return m, nil
		}

		if key.Matches(msg, keys.Enter) {
			return m, m.send()
		}

	case sendDoneMsg:
		m.running = false
		m.completeSend(msg)
		m.refreshChat()
		m.chatVP.GotoBottom()
		return m, nil

	case speakDoneMsg:
		if msg.err != nil {
			m.notice = "speech failed: " + msg.err.Error()
		}
		return m, nil

	case spinMsg:
		if m.running {
			m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
			return m, m.spinCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// send dispatches the input line according to the active mode. Both
// paths return immediately; the worker's channel comes back as a
// sendDoneMsg.
func (m *MainModel) send() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if m.busy() {
		m.notice = "still waiting on the previous request"
		return nil
	}

	var (
		ch  <-chan app.TaskResult
		err error
	)
	switch m.mode {
	case modeWorkshop:
		ch, err = m.studio.Workshop.Send(context.Background(), text, app.SelectedLabels(m.studio.Forest))
	default:
		ch, err = m.studio.SendProse(context.Background(), text, m.tree.CurrentScene())
	}
	if err != nil {
		m.appendProse(Message{Role: "error", Content: err.Error()})
		m.refreshChat()
		return nil
	}

	if m.mode == modeProse {
		m.appendProse(Message{Role: "user", Content: text})
	}
	m.input.Reset()
	m.running = true
	m.spinnerPos = 0
	m.notice = ""
	m.refreshChat()
	m.chatVP.GotoBottom()

	mode := m.mode
	wait := func() tea.Msg {
		return sendDoneMsg{mode: mode, res: <-ch}
	}
	return tea.Batch(wait, m.spinCmd())
}

// speakLast hands the newest assistant turn to the speech engine.
func (m *MainModel) speakLast() tea.Cmd {
	msgs := m.chatMessages()
	text := ""
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "assistant" {
			text = msgs[i].Content
			break
		}
	}
	if text == "" {
		m.notice = "nothing to read yet"
		return nil
	}
	ch, err := m.studio.SpeakText(context.Background(), text)
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	return func() tea.Msg {
		res := <-ch
		return speakDoneMsg{err: res.Err}
	}
}

func (m *MainModel) completeSend(msg sendDoneMsg) {
	if msg.res.Err != nil {
		m.appendProse(Message{Role: "error", Content: msg.res.Err.Error()})
		return
	}
	switch msg.mode {
	case modeWorkshop:
		outcome, ok := msg.res.Value.(app.SendOutcome)
		if !ok {
			m.appendProse(Message{Role: "error", Content: "unexpected response payload"})
			return
		}
		m.studio.Workshop.CompleteSend(outcome.Response)
		if outcome.Summarized {
			m.notice = "conversation summarized to stay under the token budget"
		}
	default:
		text, ok := msg.res.Value.(string)
		if !ok {
			m.appendProse(Message{Role: "error", Content: "unexpected response payload"})
			return
		}
		m.appendProse(Message{Role: "assistant", Content: text})
	}
}

func (m *MainModel) appendProse(msg Message) {
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("%s-%d", msg.Role, time.Now().UnixNano())
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	m.proseMessages = append(m.proseMessages, msg)
}

func (m *MainModel) spinCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return spinMsg{}
	})
}

type layout struct {
	chatW, chatH int
	treeW, treeH int
	inputW       int
}

// computeLayout splits the window: one line of top bar, the main row,
// a three-line input box, one footer line. Pane borders cost two cells
// each way.
func (m *MainModel) computeLayout() layout {
	var l layout
	mainH := max(3, m.height-1-3-1-2)
	l.inputW = m.width - 6

	if m.showContext {
		l.treeW = min(40, max(24, m.width/3))
	}
	l.chatW = max(20, m.width-l.treeW-4)
	if m.showContext {
		l.chatW = max(20, m.width-l.treeW-8)
	}
	l.chatH = mainH
	l.treeH = mainH
	return l
}

func (m *MainModel) resize() {
	layout := m.computeLayout()
	if m.ready {
		m.chatVP.Width = layout.chatW
		m.chatVP.Height = layout.chatH
	}
	m.tree.SetSize(layout.treeW, layout.treeH)
	m.input.SetWidth(max(10, layout.inputW))
	m.refreshChat()
}

// chatMessages picks the render source for the active mode.
func (m *MainModel) chatMessages() []Message {
	if m.mode == modeProse {
		return m.proseMessages
	}
	history := m.studio.Workshop.History()
	out := make([]Message, 0, len(history))
	for _, h := range history {
		out = append(out, Message{
			ID:        h.ID,
			Role:      string(h.Role),
			Content:   h.Content,
			Timestamp: h.CreatedAt,
		})
	}
	return out
}

func (m *MainModel) refreshChat() {
	if !m.ready {
		return
	}
	m.chatVP.SetContent(m.renderMessages(m.chatVP.Width))
}

func (m *MainModel) renderMessages(width int) string {
	msgs := m.chatMessages()
	if len(msgs) == 0 {
		if m.mode == modeProse {
			return m.theme.Footer.Render("Pick a scene in the context panel, check the context you want, and send action beats.")
		}
		return m.theme.Footer.Render("Workshop chat. Selected context rides along with every message.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		var header string
		var style lipgloss.Style
		switch msg.Role {
		case "user":
			header = "You"
			style = m.theme.RoleYou
		case "assistant":
			header = "Assistant"
			style = m.theme.RoleAI
		case "system":
			header = "System"
			style = m.theme.RoleSys
		default:
			header = "Error"
			style = m.theme.RoleErr
		}
		if !msg.Timestamp.IsZero() {
			header += " · " + msg.Timestamp.Format("15:04:05")
		}
		b.WriteString(style.Render(header))
		b.WriteString("\n")
		b.WriteString(wordwrap.String(msg.Content, max(10, width)))
		if i != len(msgs)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m *MainModel) renderTopBar() string {
	prompt := m.studio.ProsePrompt().Name
	if prompt == "" {
		prompt = "default"
	}
	parts := []string{
		m.theme.TopBarTitle.Render("inkwell"),
		m.theme.TopBarBadge.Render(m.mode.title()),
		m.theme.TopBarMeta.Render("prompt: " + prompt),
		m.theme.TopBarMeta.Render(fmt.Sprintf("%s · %s · %s", m.studio.POV, m.studio.POVCharacter, m.studio.Tense)),
	}
	return truncate(strings.Join(parts, m.theme.TopBar.Render("  |  ")), m.width)
}

func (m *MainModel) renderFooter() string {
	left := "enter send | tab focus | shift+tab mode | ctrl+t context | ctrl+g help"
	right := fmt.Sprintf("tokens %d/%d", m.studio.Workshop.Estimate(), m.studio.Workshop.Budget())
	if m.studio.Workshop.Phase() == app.ConversationSummarized {
		right += " · summarized"
	}
	if m.running {
		right = spinnerFrames[m.spinnerPos] + " waiting · " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return truncate(m.theme.Footer.Render(left), m.width)
	}
	return m.theme.Footer.Render(left) + strings.Repeat(" ", gap) + m.theme.Footer.Render(right)
}

func (m *MainModel) View() string {
	if m.showHelp {
		return m.help.View()
	}

	layout := m.computeLayout()

	chatPane := m.theme.Pane
	treePane := m.theme.Pane
	inputBox := m.theme.InputBox
	if m.focus == focusTree {
		treePane = m.theme.PaneFocused
	} else {
		inputBox = m.theme.InputBoxF
	}

	chat := ""
	if m.ready {
		chat = m.chatVP.View()
	} else {
		chat = m.renderMessages(layout.chatW)
	}
	main := chatPane.Width(layout.chatW).Height(layout.chatH).Render(chat)
	if m.showContext {
		tree := treePane.Width(layout.treeW).Height(layout.treeH).Render(m.tree.View(m.focus == focusTree))
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, tree)
	}

	var b strings.Builder
	b.WriteString(m.renderTopBar())
	b.WriteString("\n")
	b.WriteString(main)
	b.WriteString("\n")
	b.WriteString(inputBox.Width(max(12, m.width-2)).Render(m.input.View()))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.theme.Notice.Render(truncate(m.notice, m.width)))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())
	return b.String()
}

// nextOption advances through opts, treating an unknown current value
// as position -1 so custom settings cycle back into the stock list.
func nextOption(current string, opts []string) string {
	for i, opt := range opts {
		if opt == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return opts[0]
}
