package models

import (
	"fmt"
	"strings"
)

type Message struct {
	ID          int64  `yaml:"id" json:"id"`
	Text        string `yaml:"text" json:"text"`
	Sender      bool   `yaml:"sender" json:"sender"`
	Time        string `yaml:"time" json:"time"`
	ShowTime    bool   `yaml:"-" json:"showTime,omitempty"`
	ShowProfile bool   `yaml:"-" json:"showProfile,omitempty"`
	GroupID     string `yaml:"-" json:"groupId,omitempty"`
}

// MessageGroup is derived view state. It is recomputed from the message
// sequence on every render and never stored.
type MessageGroup struct {
	ID          string
	Time        string
	Sender      bool
	Messages    []Message
	ShowTime    bool
	ShowProfile bool
}

type Profile struct {
	Name  string `yaml:"name" json:"name"`
	Image string `yaml:"image,omitempty" json:"image,omitempty"`
}

type DeviceSettings struct {
	Time         string `yaml:"time" json:"time"`
	BatteryLevel int    `yaml:"battery_level" json:"batteryLevel"`
}

// ClampBattery keeps a battery level inside [0,100].
func ClampBattery(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}

type Platform string

const (
	PlatformKakaoTalk Platform = "kakaotalk"
	PlatformInstagram Platform = "instagram"
)

type PlatformConfig struct {
	ID   Platform
	Name string
	Icon string
}

var Platforms = []PlatformConfig{
	{ID: PlatformKakaoTalk, Name: "카카오톡", Icon: "💬"},
	{ID: PlatformInstagram, Name: "Instagram", Icon: "📸"},
}

// ParsePlatform accepts a platform id in any case.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformKakaoTalk:
		return PlatformKakaoTalk, nil
	case PlatformInstagram:
		return PlatformInstagram, nil
	}
	return "", fmt.Errorf("unknown platform: %q", s)
}

// Config returns the display config for the platform.
func (p Platform) Config() PlatformConfig {
	for _, c := range Platforms {
		if c.ID == p {
			return c
		}
	}
	return PlatformConfig{ID: p, Name: string(p)}
}

// Next cycles through Platforms.
func (p Platform) Next() Platform {
	for i, c := range Platforms {
		if c.ID == p {
			return Platforms[(i+1)%len(Platforms)].ID
		}
	}
	return Platforms[0].ID
}

// Phone screen geometry in logical pixels (iPhone 15).
const (
	ScreenWidth     = 393
	ScreenHeight    = 852
	StatusBarHeight = 54
)

// Skin colours.
const (
	KakaoYellow     = "#FFE400"
	KakaoBackground = "#ABC1D1"
	KakaoTextGray   = "#556677"

	InstagramBlue     = "#3797F0"
	InstagramGray     = "#EFEFEF"
	InstagramBorder   = "#DBDBDB"
	InstagramTextGray = "#8E8E8E"
	InstagramTextDark = "#262626"

	IOSRed    = "#FF3B30"
	IOSOrange = "#FF9500"
	IOSGreen  = "#34C759"
)
