package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/saravenpi/firewood/internal/chat"
	"github.com/saravenpi/firewood/internal/models"
	"github.com/saravenpi/firewood/internal/session"
)

const readReceipt = "읽음"

// renderPreview draws the grouped conversation in the terminal with the same
// grouping flags the screenshot uses. selected marks one message id.
func renderPreview(snap session.Snapshot, width int, selected int64) string {
	if width < 20 {
		width = 20
	}
	bubbleWidth := width * 3 / 4

	var b strings.Builder
	cfg := snap.Platform.Config()
	b.WriteString(nameStyle.Render(cfg.Icon+" "+snap.Receiver.Name) + "\n\n")

	if len(snap.Messages) == 0 {
		b.WriteString(helpStyle.Render("  No messages yet. Press n to write one.") + "\n")
		return b.String()
	}

	if snap.Platform == models.PlatformKakaoTalk && snap.ShowDateBar {
		bar := dateBarStyle.Render(chat.FormatDisplayDate(snap.Date))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar) + "\n\n")
	}

	for _, g := range chat.Group(snap.Platform, snap.Messages) {
		writeGroup(&b, snap, g, width, bubbleWidth, selected)
	}
	return b.String()
}

func writeGroup(b *strings.Builder, snap session.Snapshot, g models.MessageGroup, width, bubbleWidth int, selected int64) {
	kakao := snap.Platform == models.PlatformKakaoTalk
	avatar := strings.Repeat(" ", 3)

	if !g.Sender && kakao && g.ShowProfile {
		b.WriteString(avatarGlyph(snap.Receiver.Name) + " " + nameStyle.Render(runewidth.Truncate(snap.Receiver.Name, width-4, "…")) + "\n")
	}

	for i, m := range g.Messages {
		style := bubbleStyle(snap.Platform, g.Sender)
		text := wordwrap.String(m.Text, max(bubbleWidth-2, 4))
		bubble := style.Render(text)

		if kakao && m.ShowTime {
			stamp := timeStyle.Render(chat.FormatTime(m.Time))
			if g.Sender {
				bubble = lipgloss.JoinHorizontal(lipgloss.Bottom, stamp, " ", bubble)
			} else {
				bubble = lipgloss.JoinHorizontal(lipgloss.Bottom, bubble, " ", stamp)
			}
		}

		marker := " "
		if m.ID == selected {
			marker = selectedMarker
		}

		lead := avatar
		if !kakao && !g.Sender && m.ShowProfile {
			lead = avatarGlyph(snap.Receiver.Name) + " "
		}

		var line string
		if g.Sender {
			line = lipgloss.PlaceHorizontal(width-2, lipgloss.Right, bubble)
		} else {
			line = lipgloss.JoinHorizontal(lipgloss.Bottom, lead, bubble)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, marker, " ", line) + "\n")

		if !kakao && chat.IsLastDeliveredSenderMessage(m, snap.Messages) {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, timeStyle.Render(readReceipt)) + "\n")
		}
		if i == len(g.Messages)-1 {
			b.WriteString("\n")
		}
	}
}

func bubbleStyle(p models.Platform, sender bool) lipgloss.Style {
	switch {
	case p == models.PlatformInstagram && sender:
		return igMineStyle
	case p == models.PlatformInstagram:
		return igOtherStyle
	case sender:
		return kakaoMineStyle
	default:
		return kakaoOtherStyle
	}
}

// avatarGlyph is a two-cell stand-in for the profile picture.
func avatarGlyph(name string) string {
	initial := "?"
	for _, r := range strings.TrimSpace(name) {
		initial = strings.ToUpper(string(r))
		break
	}
	if runewidth.StringWidth(initial) < 2 {
		initial += " "
	}
	return nameStyle.Render(initial)
}
