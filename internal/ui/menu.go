package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenChat screen = iota
	screenDevice
	screenProfiles
	screenPresets
	screenImport
	screenHistory
)

type menuItem struct {
	title  string
	desc   string
	target screen
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

// newList builds a list with the shared delegate styling.
func newList(title string, items []list.Item, height int, filter bool) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("214")).
		BorderForeground(lipgloss.Color("214")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8")).
		BorderForeground(lipgloss.Color("214"))

	l := list.New(items, delegate, 80, height)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(filter)
	l.SetShowHelp(false)
	return l
}

type MenuModel struct {
	env          *Env
	list         list.Model
	windowWidth  int
	windowHeight int
}

// NewMenuModel creates the main menu.
func NewMenuModel(env *Env) MenuModel {
	items := []list.Item{
		menuItem{title: "💬 Chat Editor", desc: "Write the conversation and export it", target: screenChat},
		menuItem{title: "🔋 Device Settings", desc: "Status bar time, battery and date bar", target: screenDevice},
		menuItem{title: "👤 Profiles", desc: "Names and pictures of both participants", target: screenProfiles},
		menuItem{title: "📇 Presets", desc: "Saved profiles", target: screenPresets},
		menuItem{title: "📥 Import from Messages", desc: "Start from a real iMessage conversation", target: screenImport},
		menuItem{title: "🗂  Export History", desc: "Past screenshots", target: screenHistory},
	}

	return MenuModel{
		env:          env,
		list:         newList("🔥 Firewood - Chat Screenshot Maker", items, 20, false),
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) open(target screen) (tea.Model, tea.Cmd) {
	w, h := m.windowWidth, m.windowHeight
	switch target {
	case screenChat:
		next := sized(NewChatModel(m.env), w, h)
		return next, next.Init()
	case screenDevice:
		next := sized(NewDeviceFormModel(m.env), w, h)
		return next, next.Init()
	case screenProfiles:
		next := sized(NewProfileFormModel(m.env), w, h)
		return next, next.Init()
	case screenPresets:
		next := sized(NewPresetsModel(m.env), w, h)
		return next, next.Init()
	case screenImport:
		next := sized(NewImportModel(m.env), w, h)
		return next, next.Init()
	case screenHistory:
		next := sized(NewHistoryModel(m.env), w, h)
		return next, next.Init()
	}
	return m, nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		if msg.String() == "enter" {
			item, ok := m.list.SelectedItem().(menuItem)
			if !ok {
				return m, nil
			}
			return m.open(item.target)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: select • q: quit")
	return s
}
