package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/profiles"
)

type presetItem struct {
	preset profiles.Preset
}

func (i presetItem) FilterValue() string { return i.preset.Name }
func (i presetItem) Title() string       { return i.preset.Name }
func (i presetItem) Description() string {
	if i.preset.Image == "" {
		return "no picture"
	}
	return truncateMiddle(i.preset.Image, 60)
}

// truncateMiddle shortens long paths and data URLs for list rows.
func truncateMiddle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 5 {
		return s
	}
	half := (n - 1) / 2
	return string(r[:half]) + "…" + string(r[len(r)-half:])
}

type presetsLoadedMsg struct {
	presets []profiles.Preset
	err     error
}

type PresetsModel struct {
	env            *Env
	list           list.Model
	presets        []profiles.Preset
	loading        bool
	status         string
	err            error
	windowWidth    int
	windowHeight   int
	confirmDelete  bool
	presetToDelete *profiles.Preset
}

// NewPresetsModel lists saved presets and applies them to the session.
func NewPresetsModel(env *Env) PresetsModel {
	return PresetsModel{
		env:          env,
		list:         newList("Presets", []list.Item{}, 20, true),
		loading:      true,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m PresetsModel) Init() tea.Cmd {
	return m.loadPresetsCmd()
}

func (m PresetsModel) loadPresetsCmd() tea.Cmd {
	store := m.env.Profiles
	return func() tea.Msg {
		if store == nil {
			return presetsLoadedMsg{err: fmt.Errorf("preset store unavailable")}
		}
		presets, err := store.List()
		return presetsLoadedMsg{presets: presets, err: err}
	}
}

func (m PresetsModel) selected() (profiles.Preset, bool) {
	item, ok := m.list.SelectedItem().(presetItem)
	return item.preset, ok
}

func (m PresetsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case presetsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.presets = msg.presets
		items := make([]list.Item, len(m.presets))
		for i, p := range m.presets {
			items[i] = presetItem{preset: p}
		}
		m.list.SetItems(items)
		m.list.Title = fmt.Sprintf("Presets - %d saved", len(m.presets))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				target := m.presetToDelete
				m.confirmDelete = false
				m.presetToDelete = nil
				if target == nil {
					return m, nil
				}
				if err := m.env.Profiles.Delete(target.Name); err != nil {
					m.err = err
					return m, nil
				}
				m.loading = true
				return m, m.loadPresetsCmd()
			case "n", "N", "esc":
				m.confirmDelete = false
				m.presetToDelete = nil
			}
			return m, nil
		}

		if m.list.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc", "q":
			return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil

		case "n", "a":
			form := sized(NewPresetFormModel(m.env, nil), m.windowWidth, m.windowHeight)
			return form, form.Init()

		case "r":
			m.env.Profiles.InvalidateCache()
			m.loading = true
			return m, m.loadPresetsCmd()

		case "e":
			if p, ok := m.selected(); ok {
				form := sized(NewPresetFormModel(m.env, &p), m.windowWidth, m.windowHeight)
				return form, form.Init()
			}
			return m, nil

		case "enter":
			if p, ok := m.selected(); ok {
				m.env.Session.UpdateReceiverProfile(p.Profile())
				m.status = fmt.Sprintf("'%s' is now the other person", p.Name)
			}
			return m, nil

		case "s":
			if p, ok := m.selected(); ok {
				m.env.Session.UpdateSenderProfile(p.Profile())
				m.status = fmt.Sprintf("'%s' is now you", p.Name)
			}
			return m, nil

		case "d", "delete":
			if p, ok := m.selected(); ok {
				m.confirmDelete = true
				m.presetToDelete = &p
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m PresetsModel) View() string {
	if m.confirmDelete && m.presetToDelete != nil {
		s := titleStyle.Render("Delete Preset") + "\n\n"
		s += normalStyle.Render(fmt.Sprintf("Are you sure you want to delete '%s'?", m.presetToDelete.Name)) + "\n\n"
		s += errorStyle.Render("This action cannot be undone.") + "\n\n"
		s += helpStyle.Render("y: confirm delete • n/esc: cancel")
		return s
	}

	if m.loading {
		return "\n  Loading presets...\n"
	}

	if m.err != nil {
		s := titleStyle.Render("Presets") + "\n\n"
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
		s += helpStyle.Render("esc: back to menu")
		return s
	}

	if len(m.presets) == 0 {
		s := titleStyle.Render("Presets") + "\n\n"
		s += normalStyle.Render("  No presets saved. Press 'n' to add one.") + "\n"
		s += "\n" + helpStyle.Render("n: new preset • esc: back")
		return s
	}

	s := m.list.View() + "\n"
	if m.status != "" {
		s += successStyle.Render(m.status) + "\n"
	}
	s += helpStyle.Render("enter: use as them • s: use as me • e: edit • n: new • d: delete • /: search • esc: back")
	return s
}
