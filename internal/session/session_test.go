package session

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saravenpi/firewood/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestSession() *Session {
	return New(Options{
		ShowDateBar: true,
		Now:         fixedClock(time.Date(2025, 1, 12, 9, 7, 0, 0, time.UTC)),
	})
}

func TestNew_Defaults(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, DefaultMessages(), s.Messages())
	assert.Equal(t, models.PlatformKakaoTalk, s.Platform())
	assert.Equal(t, DefaultDeviceSettings(), s.DeviceSettings())
	show, date := s.DateBar()
	assert.True(t, show)
	assert.Equal(t, DefaultDate, date)
}

func TestAddMessage(t *testing.T) {
	s := newTestSession()

	m1, err := s.AddMessage("  hello  ", true)
	require.NoError(t, err)
	assert.Equal(t, "hello", m1.Text)
	assert.Equal(t, "9:07", m1.Time)

	// Same millisecond: the id is still unique and increasing.
	m2, err := s.AddMessage("again", false)
	require.NoError(t, err)
	assert.Greater(t, m2.ID, m1.ID)

	msgs := s.Messages()
	assert.Equal(t, m2, msgs[len(msgs)-1])

	_, err = s.AddMessage("   ", true)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAddMessage_ComposesHangul(t *testing.T) {
	s := newTestSession()
	m, err := s.AddMessage("\u1112\u1161\u11ab", true)
	require.NoError(t, err)
	assert.Equal(t, "\ud55c", m.Text)
}

func TestUpdateAndDeleteMessage(t *testing.T) {
	s := newTestSession()

	require.NoError(t, s.UpdateMessage(3, "뭔데", "14:30"))
	assert.Equal(t, "뭔데", s.Messages()[2].Text)
	assert.Equal(t, "14:30", s.Messages()[2].Time)

	require.NoError(t, s.UpdateMessage(3, "뭔데?", ""))
	assert.Equal(t, "14:30", s.Messages()[2].Time)

	assert.ErrorIs(t, s.UpdateMessage(42, "x", ""), ErrMessageNotFound)

	require.NoError(t, s.DeleteMessage(1))
	assert.Len(t, s.Messages(), 5)
	assert.ErrorIs(t, s.DeleteMessage(1), ErrMessageNotFound)
}

func TestReset(t *testing.T) {
	s := newTestSession()
	s.UpdateSenderProfile(models.Profile{Name: "me"})
	s.UpdateDeviceSettings("1:00", 99)
	require.NoError(t, s.DeleteMessage(2))

	s.Reset()
	assert.Equal(t, DefaultMessages(), s.Messages())
	assert.Equal(t, DefaultSenderProfile(), s.SenderProfile())
	assert.Equal(t, DefaultDeviceSettings(), s.DeviceSettings())
}

func TestSwapRoles(t *testing.T) {
	s := newTestSession()
	before := s.Messages()

	s.SwapRoles()
	after := s.Messages()
	for i := range before {
		assert.Equal(t, !before[i].Sender, after[i].Sender)
	}
	assert.Equal(t, DefaultReceiverProfile(), s.SenderProfile())
	assert.Equal(t, DefaultSenderProfile(), s.ReceiverProfile())
}

func TestUpdateDeviceSettings_ClampsBattery(t *testing.T) {
	s := newTestSession()
	s.UpdateDeviceSettings("", 140)
	assert.Equal(t, 100, s.DeviceSettings().BatteryLevel)
	assert.Equal(t, "5:12", s.DeviceSettings().Time)
	s.UpdateDeviceSettings("23:00", -3)
	assert.Equal(t, 0, s.DeviceSettings().BatteryLevel)
}

func TestGroupsFollowPlatform(t *testing.T) {
	s := newTestSession()
	assert.Len(t, s.Groups(), 5)
	s.SetPlatform(models.PlatformInstagram)
	assert.Len(t, s.Groups(), 5)
	assert.Len(t, s.Snapshot().Groups(), 5)

	_, err := s.AddMessage("ㅋ", true)
	require.NoError(t, err)
	assert.Len(t, s.Groups(), 5)
}

func TestReplaceMessages_ReassignsIDs(t *testing.T) {
	s := newTestSession()
	s.ReplaceMessages([]models.Message{
		{ID: 0, Text: "a", Sender: true, Time: "1:00"},
		{ID: 7, Text: "b", Time: "1:00"},
		{ID: 7, Text: "c", Time: "1:01", ShowTime: true},
	})
	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.NotEqual(t, msgs[1].ID, msgs[2].ID)
	assert.NotZero(t, msgs[0].ID)
	assert.False(t, msgs[2].ShowTime)
}

func TestBeginExport_Busy(t *testing.T) {
	s := newTestSession()
	require.False(t, s.Exporting())

	release, err := s.BeginExport()
	require.NoError(t, err)
	assert.True(t, s.Exporting())

	_, err = s.BeginExport()
	assert.ErrorIs(t, err, ErrExportInProgress)

	release()
	release()
	assert.False(t, s.Exporting())

	release, err = s.BeginExport()
	require.NoError(t, err)
	release()
}

func TestBeginExport_Concurrent(t *testing.T) {
	s := newTestSession()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
		releases []func()
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if release, err := s.BeginExport(); err == nil {
				mu.Lock()
				acquired++
				releases = append(releases, release)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
	for _, r := range releases {
		r()
	}
}

func TestScriptRoundTrip(t *testing.T) {
	s := newTestSession()
	s.SetPlatform(models.PlatformInstagram)
	s.UpdateDeviceSettings("23:45", 80)
	path := filepath.Join(t.TempDir(), "chat.yml")
	require.NoError(t, s.SaveScript(path))

	script, err := LoadScript(path)
	require.NoError(t, err)

	other := New(Options{})
	other.Apply(script)
	assert.Equal(t, models.PlatformInstagram, other.Platform())
	assert.Equal(t, models.DeviceSettings{Time: "23:45", BatteryLevel: 80}, other.DeviceSettings())
	assert.Equal(t, s.Messages(), other.Messages())
	show, _ := other.DateBar()
	assert.True(t, show)
}
