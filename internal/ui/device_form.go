package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	deviceTime = iota
	deviceBattery
	deviceDate
	deviceFields
)

// DeviceFormModel edits the status bar overlay and the date bar.
type DeviceFormModel struct {
	env          *Env
	inputs       []textinput.Model
	showDate     bool
	focusIndex   int
	err          error
	windowWidth  int
	windowHeight int
}

func NewDeviceFormModel(env *Env) DeviceFormModel {
	device := env.Session.DeviceSettings()
	show, date := env.Session.DateBar()

	inputs := make([]textinput.Model, deviceFields)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 30
	}
	inputs[deviceTime].Placeholder = "9:41"
	inputs[deviceTime].CharLimit = 8
	inputs[deviceTime].SetValue(device.Time)

	inputs[deviceBattery].Placeholder = "0-100"
	inputs[deviceBattery].CharLimit = 3
	inputs[deviceBattery].SetValue(strconv.Itoa(device.BatteryLevel))

	inputs[deviceDate].Placeholder = "2025-01-12"
	inputs[deviceDate].CharLimit = 10
	inputs[deviceDate].SetValue(date)

	inputs[deviceTime].Focus()

	return DeviceFormModel{
		env:          env,
		inputs:       inputs,
		showDate:     show,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m DeviceFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m DeviceFormModel) back() (tea.Model, tea.Cmd) {
	return sized(NewMenuModel(m.env), m.windowWidth, m.windowHeight), nil
}

func (m *DeviceFormModel) updateFocus() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[m.focusIndex].Focus()
}

// apply validates the form and writes it into the session.
func (m DeviceFormModel) apply() error {
	clock := strings.TrimSpace(m.inputs[deviceTime].Value())
	if _, err := time.Parse("15:04", clock); clock != "" && err != nil {
		return fmt.Errorf("time must look like 9:41 or 21:05")
	}

	battery, err := strconv.Atoi(strings.TrimSpace(m.inputs[deviceBattery].Value()))
	if err != nil {
		return fmt.Errorf("battery must be a number")
	}

	date := strings.TrimSpace(m.inputs[deviceDate].Value())
	if _, err := time.Parse(time.DateOnly, date); date != "" && err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}

	m.env.Session.UpdateDeviceSettings(clock, battery)
	m.env.Session.SetDateBar(m.showDate, date)
	return nil
}

func (m DeviceFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			return m.back()
		case "tab", "down", "shift+tab", "up":
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex = (m.focusIndex + deviceFields - 1) % deviceFields
			} else {
				m.focusIndex = (m.focusIndex + 1) % deviceFields
			}
			m.updateFocus()
			return m, nil
		case "ctrl+t":
			m.showDate = !m.showDate
			return m, nil
		case "ctrl+s", "enter":
			if err := m.apply(); err != nil {
				m.err = err
				return m, nil
			}
			return m.back()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m DeviceFormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Device Settings") + "\n\n")

	labels := [deviceFields]string{"Status bar time:", "Battery level (%):", "Date bar date:"}
	for i, input := range m.inputs {
		style := blurredStyle
		if i == m.focusIndex {
			style = focusedStyle
		}
		b.WriteString(style.Render(labels[i]) + "\n")
		b.WriteString(input.View() + "\n\n")
	}

	check := "[ ]"
	if m.showDate {
		check = "[x]"
	}
	b.WriteString(normalStyle.Render(check+" Show date bar (KakaoTalk)") + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n")
	}

	b.WriteString(helpStyle.Render("tab/↑↓: navigate • ctrl+t: toggle date bar • ctrl+s/enter: apply • esc: cancel"))
	return b.String()
}
