package ui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/history"
	"github.com/saravenpi/firewood/internal/models"
)

const historyLimit = 100

type historyItem struct {
	entry history.Entry
}

func (i historyItem) FilterValue() string { return i.entry.Path }

func (i historyItem) Title() string {
	if i.entry.Failed() {
		return "✗ export failed"
	}
	return "✓ " + filepath.Base(i.entry.Path)
}

func (i historyItem) Description() string {
	platform := models.Platform(i.entry.Platform).Config().Name
	when := i.entry.CreatedAt.Local().Format(time.DateTime)
	if i.entry.Failed() {
		return fmt.Sprintf("%s • %s • %s", when, platform, truncateMiddle(i.entry.Error, 60))
	}
	return fmt.Sprintf("%s • %s • %s", when, platform, i.entry.Engine)
}

type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

// HistoryModel lists past exports, newest first.
type HistoryModel struct {
	env          *Env
	list         list.Model
	entries      []history.Entry
	loading      bool
	err          error
	windowWidth  int
	windowHeight int
}

func NewHistoryModel(env *Env) HistoryModel {
	return HistoryModel{
		env:          env,
		list:         newList("Export History", []list.Item{}, 20, true),
		loading:      true,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m HistoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m HistoryModel) loadCmd() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		if env.History == nil {
			return historyLoadedMsg{}
		}
		entries, err := env.History.List(env.ctx(), historyLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case historyLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		items := make([]list.Item, len(m.entries))
		for i, e := range m.entries {
			items[i] = historyItem{entry: e}
		}
		m.list.SetItems(items)
		m.list.Title = fmt.Sprintf("Export History - %d exports", len(m.entries))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "esc", "q":
				return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil
			case "r":
				m.loading = true
				return m, m.loadCmd()
			}
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m HistoryModel) View() string {
	if m.loading {
		return "\n  Loading history...\n"
	}

	if m.err != nil {
		s := titleStyle.Render("Export History") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		s += helpStyle.Render("esc: back to menu")
		return s
	}

	if len(m.entries) == 0 {
		s := titleStyle.Render("Export History") + "\n\n"
		s += normalStyle.Render("  Nothing exported yet. Press x in the chat editor.") + "\n"
		s += "\n" + helpStyle.Render("esc: back")
		return s
	}

	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • /: search • r: refresh • esc: back")
	return s
}
