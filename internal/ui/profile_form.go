package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/profiles"
)

const (
	senderName = iota
	senderImage
	receiverName
	receiverImage
	profileFields
)

// ProfileFormModel edits the two participants of the session.
type ProfileFormModel struct {
	env          *Env
	inputs       []textinput.Model
	focusIndex   int
	status       string
	err          error
	windowWidth  int
	windowHeight int
}

func NewProfileFormModel(env *Env) ProfileFormModel {
	sender := env.Session.SenderProfile()
	receiver := env.Session.ReceiverProfile()

	inputs := make([]textinput.Model, profileFields)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 50
	}
	for _, i := range []int{senderName, receiverName} {
		inputs[i].Placeholder = "Name"
		inputs[i].CharLimit = 50
	}
	for _, i := range []int{senderImage, receiverImage} {
		inputs[i].Placeholder = "Image path or data: URL (optional)"
		inputs[i].CharLimit = 4096
	}
	inputs[senderName].SetValue(sender.Name)
	inputs[senderImage].SetValue(sender.Image)
	inputs[receiverName].SetValue(receiver.Name)
	inputs[receiverImage].SetValue(receiver.Image)
	inputs[senderName].Focus()

	return ProfileFormModel{
		env:          env,
		inputs:       inputs,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ProfileFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ProfileFormModel) profile(nameField, imageField int) models.Profile {
	return models.Profile{
		Name:  strings.TrimSpace(m.inputs[nameField].Value()),
		Image: strings.TrimSpace(m.inputs[imageField].Value()),
	}
}

// apply writes both profiles into the session. A blank image is filled from
// the preset of the same name when there is one.
func (m ProfileFormModel) apply() error {
	sender := m.profile(senderName, senderImage)
	receiver := m.profile(receiverName, receiverImage)
	if sender.Name == "" || receiver.Name == "" {
		return fmt.Errorf("both names are required")
	}
	if m.env.Profiles != nil {
		sender = m.env.Profiles.Resolve(sender)
		receiver = m.env.Profiles.Resolve(receiver)
	}
	m.env.Session.UpdateSenderProfile(sender)
	m.env.Session.UpdateReceiverProfile(receiver)
	return nil
}

// savePreset stores the side of the form that has focus as a preset.
func (m ProfileFormModel) savePreset() (string, error) {
	p := m.profile(senderName, senderImage)
	if m.focusIndex >= receiverName {
		p = m.profile(receiverName, receiverImage)
	}
	if m.env.Profiles == nil {
		return "", fmt.Errorf("preset store unavailable")
	}
	if err := m.env.Profiles.Save(profiles.Preset{Name: p.Name, Image: p.Image}); err != nil {
		return "", err
	}
	return p.Name, nil
}

func (m *ProfileFormModel) updateFocus() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[m.focusIndex].Focus()
}

func (m ProfileFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil
		case "tab", "down", "shift+tab", "up":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex = (m.focusIndex + profileFields - 1) % profileFields
			} else {
				m.focusIndex = (m.focusIndex + 1) % profileFields
			}
			m.updateFocus()
			return m, nil
		case "ctrl+s":
			if err := m.apply(); err != nil {
				m.err = err
				return m, nil
			}
			return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil
		case "ctrl+p":
			name, err := m.savePreset()
			if err != nil {
				m.err = err
				m.status = ""
				return m, nil
			}
			m.err = nil
			m.status = fmt.Sprintf("Saved preset '%s'", name)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m ProfileFormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Profiles") + "\n\n")

	renderInput := func(i int, label string) {
		style := blurredStyle
		if i == m.focusIndex {
			style = focusedStyle
		}
		b.WriteString(style.Render(label) + "\n")
		b.WriteString(m.inputs[i].View() + "\n\n")
	}

	b.WriteString(normalStyle.Render("Me (right side):") + "\n")
	renderInput(senderName, "  Name:")
	renderInput(senderImage, "  Picture:")

	b.WriteString(normalStyle.Render("Them (left side):") + "\n")
	renderInput(receiverName, "  Name:")
	renderInput(receiverImage, "  Picture:")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	} else if m.status != "" {
		b.WriteString(successStyle.Render(m.status) + "\n\n")
	}

	b.WriteString(helpStyle.Render("tab/↑↓: navigate • ctrl+s: apply • ctrl+p: save focused side as preset • esc: cancel"))
	return b.String()
}
