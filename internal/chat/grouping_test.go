package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/firewood/internal/models"
)

func msg(id int64, sender bool, time string) models.Message {
	return models.Message{ID: id, Text: "m", Sender: sender, Time: time}
}

// flatten concatenates group contents, dropping the derived flags.
func flatten(groups []models.MessageGroup) []models.Message {
	var out []models.Message
	for _, g := range groups {
		for _, m := range g.Messages {
			out = append(out, models.Message{ID: m.ID, Text: m.Text, Sender: m.Sender, Time: m.Time})
		}
	}
	return out
}

var sample = []models.Message{
	msg(1, true, "14:23"),
	msg(2, false, "14:23"),
	msg(3, true, "14:24"),
	msg(4, false, "14:24"),
	msg(5, false, "14:24"),
	msg(6, true, "14:25"),
	msg(7, true, "14:25"),
	msg(8, true, "14:26"),
}

func TestGroupForKakaoTalk_Empty(t *testing.T) {
	require.Empty(t, GroupForKakaoTalk(nil))
	require.Empty(t, GroupForInstagram([]models.Message{}))
}

func TestGroupForKakaoTalk_SingleMessage(t *testing.T) {
	groups := GroupForKakaoTalk([]models.Message{msg(1, false, "9:00")})
	require.Len(t, groups, 1)
	assert.True(t, groups[0].ShowTime)
	assert.True(t, groups[0].ShowProfile)
	assert.Equal(t, "group-0", groups[0].ID)
}

func TestGroupForKakaoTalk_Example(t *testing.T) {
	in := []models.Message{
		msg(1, true, "14:23"),
		msg(2, true, "14:23"),
		msg(3, false, "14:24"),
	}
	groups := GroupForKakaoTalk(in)
	require.Len(t, groups, 2)

	assert.Len(t, groups[0].Messages, 2)
	assert.True(t, groups[0].ShowTime)
	assert.False(t, groups[0].ShowProfile)
	assert.False(t, groups[0].Messages[0].ShowTime)
	assert.True(t, groups[0].Messages[1].ShowTime)

	assert.Len(t, groups[1].Messages, 1)
	assert.True(t, groups[1].ShowTime)
	assert.True(t, groups[1].ShowProfile)
	assert.Equal(t, "group-2", groups[1].ID)
}

func TestGroupForKakaoTalk_SplitsOnTimeAndSender(t *testing.T) {
	groups := GroupForKakaoTalk(sample)
	require.Equal(t, sample, flatten(groups))

	for _, g := range groups {
		for _, m := range g.Messages {
			assert.Equal(t, g.Sender, m.Sender)
			assert.Equal(t, g.Time, m.Time)
		}
	}
	// 6 and 7 share sender and time, 8 is a new minute.
	require.Len(t, groups, 6)
	assert.Len(t, groups[4].Messages, 2)
	assert.True(t, groups[4].ShowTime)
}

func TestGroupForKakaoTalk_ShowTimeIsLastOfRun(t *testing.T) {
	groups := GroupForKakaoTalk(sample)
	flat := flatten(groups)
	for gi, g := range groups {
		last := g.Messages[len(g.Messages)-1]
		idx := -1
		for i, m := range flat {
			if m.ID == last.ID {
				idx = i
			}
		}
		require.NotEqual(t, -1, idx)
		endOfRun := idx == len(flat)-1 || flat[idx+1].Sender != last.Sender || flat[idx+1].Time != last.Time
		assert.Equal(t, endOfRun, g.ShowTime, "group %d", gi)
	}
}

func TestGroupForKakaoTalk_MalformedTimesAreOpaque(t *testing.T) {
	groups := GroupForKakaoTalk([]models.Message{
		msg(1, true, "later"),
		msg(2, true, "later"),
		msg(3, true, "soon"),
	})
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Messages, 2)
}

func TestGroupForInstagram_SenderOnly(t *testing.T) {
	groups := GroupForInstagram(sample)
	require.Equal(t, sample, flatten(groups))
	require.Len(t, groups, 5)

	for _, g := range groups {
		assert.False(t, g.ShowTime)
		for _, m := range g.Messages {
			assert.Equal(t, g.Sender, m.Sender)
			assert.False(t, m.ShowTime)
		}
	}
	// 4 and 5 differ from nothing but sender: one group spanning the run.
	assert.Len(t, groups[3].Messages, 2)
	assert.True(t, groups[3].ShowProfile)
	assert.True(t, groups[3].Messages[1].ShowProfile)
	assert.False(t, groups[3].Messages[0].ShowProfile)
	assert.False(t, groups[4].ShowProfile)
}

func TestGroupForInstagram_TrailingReceiverShowsProfile(t *testing.T) {
	groups := GroupForInstagram([]models.Message{
		msg(1, true, "1:00"),
		msg(2, false, "1:00"),
		msg(3, false, "1:05"),
	})
	require.Len(t, groups, 2)
	assert.False(t, groups[0].ShowProfile)
	assert.True(t, groups[1].ShowProfile)
}

func TestGroup_Dispatch(t *testing.T) {
	in := []models.Message{msg(1, true, "1:00"), msg(2, true, "1:01")}
	assert.Len(t, Group(models.PlatformKakaoTalk, in), 2)
	assert.Len(t, Group(models.PlatformInstagram, in), 1)
}

func TestIsLastDeliveredSenderMessage(t *testing.T) {
	count := 0
	for i, m := range sample {
		got := IsLastDeliveredSenderMessage(m, sample)
		if got {
			count++
			assert.Equal(t, len(sample)-1, i)
		}
	}
	assert.Equal(t, 1, count)
}

func TestIsLastDeliveredSenderMessage_ReceiverLast(t *testing.T) {
	in := []models.Message{msg(1, true, "1:00"), msg(2, true, "1:00"), msg(3, false, "1:01")}
	for _, m := range in {
		assert.False(t, IsLastDeliveredSenderMessage(m, in))
	}
}

func TestIsLastDeliveredSenderMessage_Unknown(t *testing.T) {
	assert.False(t, IsLastDeliveredSenderMessage(msg(99, true, "1:00"), sample))
}
