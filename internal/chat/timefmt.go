package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const fallbackTime = "00:00"

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// FormatTime renders an "H:MM" or "HH:MM" clock as zero-padded "HH:MM".
// Anything else, including out-of-range hours or minutes, becomes "00:00".
func FormatTime(raw string) string {
	match := clockPattern.FindStringSubmatch(raw)
	if match == nil {
		return fallbackTime
	}

	hours, err := strconv.Atoi(match[1])
	if err != nil {
		return fallbackTime
	}
	minutes, err := strconv.Atoi(match[2])
	if err != nil {
		return fallbackTime
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return fallbackTime
	}

	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// ClockTime is the label stamped on newly written messages: unpadded hour,
// padded minute.
func ClockTime(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

var koreanWeekdays = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

const fallbackDisplayDate = "2025년 1월 12일 일요일"

// FormatDisplayDate renders a YYYY-MM-DD date the way the KakaoTalk date bar
// shows it.
func FormatDisplayDate(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return fallbackDisplayDate
	}
	return fmt.Sprintf("%d년 %d월 %d일 %s", t.Year(), int(t.Month()), t.Day(), koreanWeekdays[t.Weekday()])
}
