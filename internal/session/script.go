package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saravenpi/firewood/internal/models"
)

// Script is the on-disk form of a chat used by the headless export.
type Script struct {
	Platform    models.Platform        `yaml:"platform,omitempty"`
	ShowDateBar *bool                  `yaml:"show_date_bar,omitempty"`
	Date        string                 `yaml:"date,omitempty"`
	Device      *models.DeviceSettings `yaml:"device,omitempty"`
	Sender      *models.Profile        `yaml:"sender,omitempty"`
	Receiver    *models.Profile        `yaml:"receiver,omitempty"`
	Messages    []models.Message       `yaml:"messages"`
}

// LoadScript reads a YAML chat script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat script: %w", err)
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to parse chat script: %w", err)
	}

	if script.Platform != "" {
		p, err := models.ParsePlatform(string(script.Platform))
		if err != nil {
			return nil, err
		}
		script.Platform = p
	}
	return &script, nil
}

// Apply overwrites the parts of the session the script sets.
func (s *Session) Apply(script *Script) {
	if script.Platform != "" {
		s.SetPlatform(script.Platform)
	}
	if script.ShowDateBar != nil || script.Date != "" {
		show, _ := s.DateBar()
		if script.ShowDateBar != nil {
			show = *script.ShowDateBar
		}
		s.SetDateBar(show, script.Date)
	}
	if script.Device != nil {
		s.UpdateDeviceSettings(script.Device.Time, script.Device.BatteryLevel)
	}
	if script.Sender != nil {
		s.UpdateSenderProfile(*script.Sender)
	}
	if script.Receiver != nil {
		s.UpdateReceiverProfile(*script.Receiver)
	}
	if script.Messages != nil {
		s.ReplaceMessages(script.Messages)
	}
}

// SaveScript writes the current session as a YAML chat script.
func (s *Session) SaveScript(path string) error {
	snap := s.Snapshot()
	show := snap.ShowDateBar
	script := Script{
		Platform:    snap.Platform,
		ShowDateBar: &show,
		Date:        snap.Date,
		Device:      &snap.Device,
		Sender:      &snap.Sender,
		Receiver:    &snap.Receiver,
		Messages:    snap.Messages,
	}

	data, err := yaml.Marshal(&script)
	if err != nil {
		return fmt.Errorf("failed to marshal chat script: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write chat script: %w", err)
	}
	return nil
}
