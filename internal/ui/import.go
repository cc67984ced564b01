package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/imessage"
	"github.com/saravenpi/firewood/internal/logger"
	"github.com/saravenpi/firewood/internal/models"
)

// importLimit is how many of the latest messages an import pulls in.
const importLimit = 30

type chatItem struct {
	chat imessage.Chat
}

func (i chatItem) Title() string { return i.chat.DisplayName }

func (i chatItem) Description() string {
	preview := truncateMiddle(i.chat.LastMessage, 50)
	return fmt.Sprintf("%s • %d messages • %s", formatTimeAgo(i.chat.LastTime, time.Now()), i.chat.MessageCount, preview)
}

func (i chatItem) FilterValue() string { return i.chat.DisplayName }

func formatTimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	duration := now.Sub(t)
	switch {
	case duration < time.Minute:
		return "just now"
	case duration < 2*time.Minute:
		return "1 min ago"
	case duration < time.Hour:
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	case duration < 2*time.Hour:
		return "1h ago"
	case duration < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	case duration < 48*time.Hour:
		return "yesterday"
	case duration < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
	return t.Format("Jan 2")
}

type chatsFetchedMsg struct {
	chats []imessage.Chat
	err   error
}

type chatImportedMsg struct {
	name     string
	messages []models.Message
	err      error
}

// ImportModel lists Messages.app conversations and copies one into the
// session.
type ImportModel struct {
	env          *Env
	chats        []imessage.Chat
	list         list.Model
	loading      bool
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int
}

func NewImportModel(env *Env) ImportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return ImportModel{
		env:          env,
		list:         newList("Import from Messages", []list.Item{}, 20, true),
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ImportModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchChatsCmd())
}

func (m ImportModel) fetchChatsCmd() tea.Cmd {
	path := m.env.IMessageDB
	return func() tea.Msg {
		db, err := imessage.Open(path)
		if err != nil {
			return chatsFetchedMsg{err: err}
		}
		defer db.Close()

		chats, err := imessage.GetChats(db)
		return chatsFetchedMsg{chats: chats, err: err}
	}
}

func (m ImportModel) importChatCmd(c imessage.Chat) tea.Cmd {
	path := m.env.IMessageDB
	return func() tea.Msg {
		db, err := imessage.Open(path)
		if err != nil {
			return chatImportedMsg{err: err}
		}
		defer db.Close()

		rows, err := imessage.GetMessages(db, c.ROWID, importLimit)
		if err != nil {
			return chatImportedMsg{err: err}
		}
		return chatImportedMsg{name: c.DisplayName, messages: imessage.ToMessages(rows)}
	}
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case chatsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.chats = msg.chats
		items := make([]list.Item, len(m.chats))
		for i, c := range m.chats {
			items[i] = chatItem{chat: c}
		}
		m.list.SetItems(items)
		m.list.Title = fmt.Sprintf("Import from Messages - %d chats", len(m.chats))
		return m, nil

	case chatImportedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if len(msg.messages) == 0 {
			m.err = fmt.Errorf("'%s' has no text messages to import", msg.name)
			return m, nil
		}

		m.env.Session.ReplaceMessages(msg.messages)
		receiver := models.Profile{Name: msg.name}
		if m.env.Profiles != nil {
			receiver = m.env.Profiles.Resolve(receiver)
		}
		m.env.Session.UpdateReceiverProfile(receiver)
		logger.L.Info("imported conversation", "chat", msg.name, "messages", len(msg.messages))

		next := sized(NewChatModel(m.env), m.windowWidth, m.windowHeight)
		return next, next.Init()

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc", "q":
			return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil

		case "r":
			if !m.loading {
				m.loading = true
				m.err = nil
				return m, tea.Batch(m.spinner.Tick, m.fetchChatsCmd())
			}
			return m, nil

		case "enter":
			if m.loading || len(m.chats) == 0 {
				return m, nil
			}
			if item, ok := m.list.SelectedItem().(chatItem); ok {
				m.loading = true
				return m, tea.Batch(m.spinner.Tick, m.importChatCmd(item.chat))
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ImportModel) View() string {
	if m.loading {
		return fmt.Sprintf("\n  %s Reading Messages database...\n", m.spinner.View())
	}

	if m.err != nil {
		s := titleStyle.Render("Import from Messages") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		s += helpStyle.Render("Grant the terminal Full Disk Access to read "+m.env.IMessageDB) + "\n"
		s += helpStyle.Render("r: retry • esc: back")
		return s
	}

	if len(m.chats) == 0 {
		s := titleStyle.Render("Import from Messages") + "\n\n"
		s += normalStyle.Render("  No conversations found.") + "\n"
		s += "\n" + helpStyle.Render("r: refresh • esc: back")
		return s
	}

	s := m.list.View() + "\n"
	s += helpStyle.Render(fmt.Sprintf("↑↓/jk: navigate • enter: import last %d messages • /: search • r: refresh • esc: back", importLimit))
	return s
}
