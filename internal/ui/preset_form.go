package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/profiles"
)

type presetSavedMsg struct {
	err error
}

type PresetFormModel struct {
	env          *Env
	original     *profiles.Preset
	nameInput    textinput.Model
	imageInput   textinput.Model
	focusIndex   int
	err          error
	windowWidth  int
	windowHeight int
}

// NewPresetFormModel creates a form for adding or editing a preset.
func NewPresetFormModel(env *Env, preset *profiles.Preset) PresetFormModel {
	nameInput := textinput.New()
	nameInput.Placeholder = "Preset Name"
	nameInput.Focus()
	nameInput.CharLimit = 50
	nameInput.Width = 50

	imageInput := textinput.New()
	imageInput.Placeholder = "Image path or data: URL (optional)"
	imageInput.CharLimit = 4096
	imageInput.Width = 50

	if preset != nil {
		nameInput.SetValue(preset.Name)
		imageInput.SetValue(preset.Image)
	}

	return PresetFormModel{
		env:          env,
		original:     preset,
		nameInput:    nameInput,
		imageInput:   imageInput,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m PresetFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m PresetFormModel) backToList() (tea.Model, tea.Cmd) {
	next := sized(NewPresetsModel(m.env), m.windowWidth, m.windowHeight)
	return next, next.Init()
}

func (m PresetFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m.backToList()
		case "tab", "shift+tab", "up", "down":
			m.focusIndex = 1 - m.focusIndex
			if m.focusIndex == 0 {
				m.imageInput.Blur()
				m.nameInput.Focus()
			} else {
				m.nameInput.Blur()
				m.imageInput.Focus()
			}
			return m, nil
		case "ctrl+s":
			return m, m.savePresetCmd()
		}

	case presetSavedMsg:
		if msg.err == nil {
			return m.backToList()
		}
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.imageInput, cmd = m.imageInput.Update(msg)
	}
	return m, cmd
}

func (m PresetFormModel) savePresetCmd() tea.Cmd {
	store := m.env.Profiles
	original := m.original
	name := strings.TrimSpace(m.nameInput.Value())
	image := strings.TrimSpace(m.imageInput.Value())

	return func() tea.Msg {
		if name == "" {
			return presetSavedMsg{err: fmt.Errorf("name is required")}
		}
		if original != nil && original.Name != name {
			if err := store.Delete(original.Name); err != nil {
				return presetSavedMsg{err: fmt.Errorf("failed to delete old preset: %w", err)}
			}
		}
		return presetSavedMsg{err: store.Save(profiles.Preset{Name: name, Image: image})}
	}
}

func (m PresetFormModel) View() string {
	var b strings.Builder

	title := "Add Preset"
	if m.original != nil {
		title = "Edit Preset"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	renderInput := func(input textinput.Model, label string, focused bool) {
		style := blurredStyle
		if focused {
			style = focusedStyle
		}
		b.WriteString(style.Render(label) + "\n")
		b.WriteString(input.View() + "\n\n")
	}

	renderInput(m.nameInput, "Name (required):", m.focusIndex == 0)
	renderInput(m.imageInput, "Picture:", m.focusIndex == 1)

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	}

	b.WriteString(helpStyle.Render("tab/↑↓: navigate • ctrl+s: save • esc: cancel"))
	return b.String()
}
