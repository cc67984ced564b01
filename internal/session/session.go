// Package session holds the in-memory state of one editing session: the
// message sequence, both profiles, the device overlay and the export busy
// flag. Nothing here is persisted; callers share a *Session explicitly.
package session

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/saravenpi/firewood/internal/chat"
	"github.com/saravenpi/firewood/internal/models"
)

var (
	ErrEmptyMessage    = errors.New("message text cannot be empty")
	ErrMessageNotFound = errors.New("message not found")
)

// Options seeds a new session.
type Options struct {
	Platform    models.Platform
	ShowDateBar bool
	Date        string
	// Now is the clock used for new message ids and times. Defaults to time.Now.
	Now func() time.Time
}

type Session struct {
	mu       sync.RWMutex
	messages []models.Message
	sender   models.Profile
	receiver models.Profile
	device   models.DeviceSettings
	platform models.Platform
	showDate bool
	date     string
	editMode bool
	lastID   int64
	now      func() time.Time
	guard    *exportGuard
}

// Snapshot is an immutable copy of everything a renderer needs.
type Snapshot struct {
	Messages    []models.Message
	Sender      models.Profile
	Receiver    models.Profile
	Device      models.DeviceSettings
	Platform    models.Platform
	ShowDateBar bool
	Date        string
	EditMode    bool
}

// Groups recomputes the display groups of the snapshot.
func (s Snapshot) Groups() []models.MessageGroup {
	return chat.Group(s.Platform, s.Messages)
}

// New creates a session filled with the default conversation.
func New(opts Options) *Session {
	if opts.Platform == "" {
		opts.Platform = models.PlatformKakaoTalk
	}
	if opts.Date == "" {
		opts.Date = DefaultDate
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		platform: opts.Platform,
		showDate: opts.ShowDateBar,
		date:     opts.Date,
		now:      opts.Now,
		guard:    newExportGuard(),
	}
	s.resetLocked()
	return s
}

func (s *Session) resetLocked() {
	s.messages = DefaultMessages()
	s.sender = DefaultSenderProfile()
	s.receiver = DefaultReceiverProfile()
	s.device = DefaultDeviceSettings()
	for _, m := range s.messages {
		s.lastID = max(s.lastID, m.ID)
	}
}

// nextID derives ids from the creation timestamp, bumped when two messages
// land in the same millisecond.
func (s *Session) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Messages returns a copy of the message sequence in chronological order.
func (s *Session) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// Groups recomputes the display groups for the current platform.
func (s *Session) Groups() []models.MessageGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return chat.Group(s.platform, s.messages)
}

// AddMessage appends a message stamped with the current clock time.
func (s *Session) AddMessage(text string, sender bool) (models.Message, error) {
	return s.AddMessageAt(text, sender, chat.ClockTime(s.now()))
}

// AddMessageAt appends a message with an explicit "H:MM" time.
func (s *Session) AddMessageAt(text string, sender bool, clock string) (models.Message, error) {
	text = normalizeText(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := models.Message{
		ID:     s.nextID(),
		Text:   text,
		Sender: sender,
		Time:   clock,
	}
	s.messages = append(s.messages, m)
	return m, nil
}

// UpdateMessage edits text and time in place. An empty time keeps the old one.
func (s *Session) UpdateMessage(id int64, text, clock string) error {
	text = normalizeText(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i == -1 {
		return ErrMessageNotFound
	}
	s.messages[i].Text = text
	if clock = strings.TrimSpace(clock); clock != "" {
		s.messages[i].Time = clock
	}
	return nil
}

// DeleteMessage removes the message with the given id.
func (s *Session) DeleteMessage(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i == -1 {
		return ErrMessageNotFound
	}
	s.messages = slices.Delete(s.messages, i, i+1)
	return nil
}

// ReplaceMessages swaps in a whole conversation, e.g. an import. Ids are
// reassigned when they collide.
func (s *Session) ReplaceMessages(msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool, len(msgs))
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		m.Text = normalizeText(m.Text)
		m.ShowTime, m.ShowProfile, m.GroupID = false, false, ""
		if m.ID <= 0 || seen[m.ID] {
			m.ID = s.lastID + 1
		}
		seen[m.ID] = true
		s.lastID = max(s.lastID, m.ID)
		out = append(out, m)
	}
	s.messages = out
}

func (s *Session) indexLocked(id int64) int {
	return slices.IndexFunc(s.messages, func(m models.Message) bool { return m.ID == id })
}

// Reset restores the default conversation, profiles and device settings.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// SwapRoles flips the author of every message and swaps the two profiles.
func (s *Session) SwapRoles() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		s.messages[i].Sender = !s.messages[i].Sender
	}
	s.sender, s.receiver = s.receiver, s.sender
}

func (s *Session) SenderProfile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sender
}

func (s *Session) ReceiverProfile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receiver
}

func (s *Session) UpdateSenderProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = p
}

func (s *Session) UpdateReceiverProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiver = p
}

func (s *Session) DeviceSettings() models.DeviceSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// UpdateDeviceSettings sets the status bar overlay. An empty time keeps the
// current one; the battery level is clamped to [0,100].
func (s *Session) UpdateDeviceSettings(clock string, battery int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clock = strings.TrimSpace(clock); clock != "" {
		s.device.Time = clock
	}
	s.device.BatteryLevel = models.ClampBattery(battery)
}

func (s *Session) Platform() models.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.platform
}

func (s *Session) SetPlatform(p models.Platform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.platform = p
}

// DateBar reports whether the KakaoTalk date bar is shown and its date.
func (s *Session) DateBar() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showDate, s.date
}

func (s *Session) SetDateBar(show bool, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showDate = show
	if date = strings.TrimSpace(date); date != "" {
		s.date = date
	}
}

func (s *Session) EditMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editMode
}

func (s *Session) SetEditMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editMode = on
}

// Snapshot copies the state for a renderer.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Messages:    slices.Clone(s.messages),
		Sender:      s.sender,
		Receiver:    s.receiver,
		Device:      s.device,
		Platform:    s.platform,
		ShowDateBar: s.showDate,
		Date:        s.date,
		EditMode:    s.editMode,
	}
}

// BeginExport marks the session busy. The caller must invoke release when
// the export finishes; a second BeginExport before that fails with
// ErrExportInProgress.
func (s *Session) BeginExport() (release func(), err error) {
	return s.guard.begin()
}

// Exporting is the caller-visible busy flag.
func (s *Session) Exporting() bool {
	return s.guard.busy()
}

// normalizeText trims the text and composes Hangul jamo so the rasterizer
// draws syllables rather than loose letters.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
