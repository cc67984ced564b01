package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/logger"
	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/session"
)

type exportDoneMsg struct {
	path string
	err  error
}

type composeMode int

const (
	composeNone composeMode = iota
	composeMine
	composeOther
	composeEdit
)

// ChatModel edits the conversation and shows a live preview of it.
type ChatModel struct {
	env          *Env
	viewport     viewport.Model
	textarea     textarea.Model
	spinner      spinner.Model
	compose      composeMode
	selected     int64
	exporting    bool
	status       string
	err          error
	windowWidth  int
	windowHeight int
}

func NewChatModel(env *Env) ChatModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.CharLimit = 1000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	m := ChatModel{
		env:          env,
		viewport:     vp,
		textarea:     ta,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
	if msgs := env.Session.Messages(); len(msgs) > 0 {
		m.selected = msgs[len(msgs)-1].ID
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m
}

func (m ChatModel) Init() tea.Cmd {
	return nil
}

func (m ChatModel) exportCmd() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		path, err := env.Exporter.ExportSession(env.ctx(), env.Session, env.Builder)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *ChatModel) layout() {
	headerHeight := 4
	helpHeight := 2
	composeHeight := 0
	if m.compose != composeNone {
		composeHeight = 5
	}
	m.viewport.Width = m.windowWidth - 4
	m.viewport.Height = max(m.windowHeight-headerHeight-helpHeight-composeHeight, 3)
	m.textarea.SetWidth(m.windowWidth - 4)
}

// refresh re-renders the preview from the session.
func (m *ChatModel) refresh() {
	m.viewport.SetContent(renderPreview(m.env.Session.Snapshot(), m.viewport.Width, m.selected))
}

// moveSelection steps the selected message by delta, clamped to the ends.
func (m *ChatModel) moveSelection(delta int) {
	msgs := m.env.Session.Messages()
	if len(msgs) == 0 {
		m.selected = 0
		return
	}
	i := slices.IndexFunc(msgs, func(x models.Message) bool { return x.ID == m.selected })
	if i == -1 {
		i = len(msgs) - 1
	} else {
		i = min(max(i+delta, 0), len(msgs)-1)
	}
	m.selected = msgs[i].ID
}

func (m *ChatModel) selectedMessage() (models.Message, bool) {
	for _, msg := range m.env.Session.Messages() {
		if msg.ID == m.selected {
			return msg, true
		}
	}
	return models.Message{}, false
}

func (m *ChatModel) startCompose(mode composeMode, value string) tea.Cmd {
	m.compose = mode
	m.err = nil
	m.textarea.Reset()
	m.textarea.SetValue(value)
	m.layout()
	m.refresh()
	return m.textarea.Focus()
}

func (m *ChatModel) stopCompose() {
	m.compose = composeNone
	m.textarea.Reset()
	m.textarea.Blur()
	m.layout()
	m.refresh()
}

func (m *ChatModel) submit() {
	text := m.textarea.Value()
	var err error
	switch m.compose {
	case composeMine, composeOther:
		var msg models.Message
		msg, err = m.env.Session.AddMessage(text, m.compose == composeMine)
		if err == nil {
			m.selected = msg.ID
		}
	case composeEdit:
		err = m.env.Session.UpdateMessage(m.selected, text, "")
	}
	if err != nil {
		m.err = err
		return
	}
	m.stopCompose()
	m.viewport.GotoBottom()
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.status = ""
			if errors.Is(msg.err, session.ErrExportInProgress) {
				m.err = fmt.Errorf("an export is already running")
			} else {
				m.err = fmt.Errorf("이미지 저장에 실패했습니다: %w", msg.err)
			}
			return m, nil
		}
		m.err = nil
		m.status = "Saved " + msg.path
		return m, nil

	case spinner.TickMsg:
		if m.exporting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.compose != composeNone {
			switch msg.String() {
			case "esc":
				m.stopCompose()
				m.err = nil
				return m, nil
			case "ctrl+s":
				m.submit()
				return m, nil
			default:
				var cmd tea.Cmd
				m.textarea, cmd = m.textarea.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "esc", "q":
			return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil

		case "n":
			return m, m.startCompose(composeMine, "")

		case "o":
			return m, m.startCompose(composeOther, "")

		case "e", "enter":
			if sel, ok := m.selectedMessage(); ok {
				return m, m.startCompose(composeEdit, sel.Text)
			}
			return m, nil

		case "up", "k":
			m.moveSelection(-1)
		case "down", "j":
			m.moveSelection(1)

		case "d", "delete":
			if err := m.env.Session.DeleteMessage(m.selected); err != nil {
				m.err = err
				return m, nil
			}
			m.moveSelection(0)

		case "s":
			m.env.Session.SwapRoles()
			m.status = "Swapped roles"

		case "p":
			next := m.env.Session.Platform().Next()
			m.env.Session.SetPlatform(next)
			m.status = "Platform: " + next.Config().Name

		case "t":
			show, date := m.env.Session.DateBar()
			m.env.Session.SetDateBar(!show, date)

		case "m":
			m.env.Session.SetEditMode(!m.env.Session.EditMode())

		case "R":
			m.env.Session.Reset()
			m.moveSelection(len(m.env.Session.Messages()))
			m.status = "Conversation reset"

		case "x":
			if m.exporting || m.env.Session.Exporting() {
				m.err = fmt.Errorf("an export is already running")
				return m, nil
			}
			m.exporting = true
			m.status = ""
			m.err = nil
			logger.L.Debug("export requested from editor", "platform", m.env.Session.Platform())
			return m, tea.Batch(m.spinner.Tick, m.exportCmd())

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		m.refresh()
		return m, nil
	}

	return m, nil
}

func (m ChatModel) View() string {
	var b strings.Builder

	platform := m.env.Session.Platform().Config()
	mode := ""
	if m.env.Session.EditMode() {
		mode = " • edit mode"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("🔥 Chat Editor • %s%s", platform.Name, mode)) + "\n")

	switch {
	case m.exporting:
		b.WriteString(fmt.Sprintf("%s 이미지 생성 중...\n", m.spinner.View()))
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	case m.status != "":
		b.WriteString(successStyle.Render(m.status) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(m.viewport.View() + "\n")

	switch m.compose {
	case composeNone:
		b.WriteString(helpStyle.Render("↑↓/jk: select • n: me • o: other • e: edit • d: delete • s: swap • p: platform • t: date bar • m: edit mode • R: reset • x: export • esc: back"))
	default:
		label := "New message (me):"
		switch m.compose {
		case composeOther:
			label = "New message (other):"
		case composeEdit:
			label = "Edit message:"
		}
		b.WriteString(inputStyle.Render(label) + "\n")
		b.WriteString(m.textarea.View() + "\n")
		b.WriteString(helpStyle.Render("ctrl+s: save • esc: cancel"))
	}

	return b.String()
}
