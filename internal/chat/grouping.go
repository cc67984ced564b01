// Package chat turns a flat message sequence into display groups for each
// platform skin and formats the clock and date labels shown next to them.
package chat

import (
	"fmt"

	"github.com/saravenpi/firewood/internal/models"
)

// Group dispatches to the grouper of the given platform skin.
func Group(platform models.Platform, messages []models.Message) []models.MessageGroup {
	if platform == models.PlatformInstagram {
		return GroupForInstagram(messages)
	}
	return GroupForKakaoTalk(messages)
}

// GroupForKakaoTalk groups consecutive messages sharing both sender and time.
// Only the last group of a same-sender, same-time run shows its timestamp.
func GroupForKakaoTalk(messages []models.Message) []models.MessageGroup {
	groups := split(messages, func(prev, cur models.Message) bool {
		return prev.Sender != cur.Sender || prev.Time != cur.Time
	})

	for i := range groups {
		g := &groups[i]
		if i == len(groups)-1 {
			g.ShowTime = true
		} else {
			next := groups[i+1]
			g.ShowTime = next.Sender != g.Sender || next.Time != g.Time
		}
		g.ShowProfile = !g.Sender
		stamp(g, false)
	}
	return groups
}

// GroupForInstagram groups consecutive messages by sender only. Timestamps are
// never shown and a receiver run shows its avatar once, on the group right
// before a switch back to the sender (or at the end of the conversation).
func GroupForInstagram(messages []models.Message) []models.MessageGroup {
	groups := split(messages, func(prev, cur models.Message) bool {
		return prev.Sender != cur.Sender
	})

	for i := range groups {
		g := &groups[i]
		g.ShowTime = false
		g.ShowProfile = !g.Sender
		if !g.Sender {
			g.ShowProfile = i == len(groups)-1 || groups[i+1].Sender
		}
		stamp(g, true)
	}
	return groups
}

// split walks the sequence once and opens a new group whenever breaks reports
// a boundary between two adjacent messages.
func split(messages []models.Message, breaks func(prev, cur models.Message) bool) []models.MessageGroup {
	if len(messages) == 0 {
		return []models.MessageGroup{}
	}

	var groups []models.MessageGroup
	var current *models.MessageGroup

	for i, msg := range messages {
		if current == nil || breaks(messages[i-1], msg) {
			groups = append(groups, models.MessageGroup{
				ID:     fmt.Sprintf("group-%d", i),
				Time:   msg.Time,
				Sender: msg.Sender,
			})
			current = &groups[len(groups)-1]
		}
		current.Messages = append(current.Messages, msg)
	}
	return groups
}

// stamp copies the group flags onto its messages so renderers that work per
// message see the same decision. The timestamp always sits on the last
// message; the avatar on the first one unless avatarOnLast is set.
func stamp(g *models.MessageGroup, avatarOnLast bool) {
	last := len(g.Messages) - 1
	avatarAt := 0
	if avatarOnLast {
		avatarAt = last
	}
	for i := range g.Messages {
		g.Messages[i].GroupID = g.ID
		g.Messages[i].ShowProfile = g.ShowProfile && i == avatarAt
		g.Messages[i].ShowTime = g.ShowTime && i == last
	}
}

// IsLastDeliveredSenderMessage reports whether msg carries the read receipt.
// Only the last message of the whole conversation qualifies, and only when the
// sender wrote it.
func IsLastDeliveredSenderMessage(msg models.Message, messages []models.Message) bool {
	if !msg.Sender {
		return false
	}

	idx := -1
	for i, m := range messages {
		if m.ID == msg.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}

	for _, m := range messages[idx+1:] {
		if !m.Sender {
			return false
		}
	}

	var last *models.Message
	for i := range messages {
		if messages[i].Sender {
			last = &messages[i]
		}
	}
	return last != nil && last.ID == msg.ID
}
