// Package imessage reads conversations out of the macOS Messages database so
// a real chat can seed a screenshot. Access is strictly read-only.
package imessage

import (
	"bytes"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"

	"github.com/saravenpi/firewood/internal/chat"
	"github.com/saravenpi/firewood/internal/models"
)

// appleEpoch is 2001-01-01 in Unix nanoseconds.
const appleEpoch = 978307200000000000

type Chat struct {
	ROWID        int64
	ChatID       string
	DisplayName  string
	LastMessage  string
	LastTime     time.Time
	Participants []string
	IsGroup      bool
	MessageCount int
}

// Row is a message as stored by Messages.app.
type Row struct {
	ROWID    int64
	Text     string
	Handle   string
	IsFromMe bool
	Date     time.Time
}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// appleTime converts a message date. Recent databases store nanoseconds
// since 2001, older ones seconds.
func appleTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	if v < 1e11 {
		v *= int64(time.Second)
	}
	return time.Unix(0, v+appleEpoch)
}

func extractTextFromAttributedBody(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	marker := []byte("NSString")
	var texts []string

	remaining := data
	for {
		idx := bytes.Index(remaining, marker)
		if idx == -1 {
			break
		}

		start := idx + len(marker) + 5
		if start >= len(remaining) {
			break
		}

		var textLength, textStart int
		if remaining[start] == 0x81 {
			if start+3 > len(remaining) {
				break
			}
			textLength = int(remaining[start+1]) | int(remaining[start+2])<<8
			textStart = start + 3
		} else {
			textLength = int(remaining[start])
			textStart = start + 1
		}

		if textStart+textLength > len(remaining) {
			break
		}

		textBytes := remaining[textStart : textStart+textLength]
		if utf8.Valid(textBytes) && !bytes.Contains(textBytes, []byte{0}) {
			if text := strings.TrimSpace(string(textBytes)); text != "" {
				texts = append(texts, text)
			}
		}

		remaining = remaining[textStart+textLength:]
	}

	return strings.Join(texts, " ")
}

// GetChats lists conversations, most recently active first.
func GetChats(db *sql.DB) ([]Chat, error) {
	query := `
		SELECT
			c.ROWID,
			COALESCE(c.chat_identifier, ''),
			COALESCE(c.display_name, ''),
			COALESCE(m.text, ''),
			m.attributedBody,
			COALESCE(m.date, 0),
			COALESCE(counts.total, 0)
		FROM chat c
		LEFT JOIN (
			SELECT cmj.chat_id, m.text, m.attributedBody, m.date
			FROM chat_message_join cmj
			JOIN message m ON cmj.message_id = m.ROWID
			WHERE cmj.message_id IN (
				SELECT MAX(message_id)
				FROM chat_message_join
				GROUP BY chat_id
			)
		) m ON c.ROWID = m.chat_id
		LEFT JOIN (
			SELECT chat_id, COUNT(*) AS total
			FROM chat_message_join
			GROUP BY chat_id
		) counts ON c.ROWID = counts.chat_id
		ORDER BY m.date DESC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	var chatIDs []int64

	for rows.Next() {
		var c Chat
		var date int64
		var attributedBody []byte
		if err := rows.Scan(&c.ROWID, &c.ChatID, &c.DisplayName, &c.LastMessage, &attributedBody, &date, &c.MessageCount); err != nil {
			continue
		}

		if c.LastMessage == "" && len(attributedBody) > 0 {
			c.LastMessage = extractTextFromAttributedBody(attributedBody)
		}
		c.IsGroup = strings.HasPrefix(c.ChatID, "chat")
		c.LastTime = appleTime(date)

		chats = append(chats, c)
		chatIDs = append(chatIDs, c.ROWID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chats: %w", err)
	}

	participants, err := getAllChatParticipants(db, chatIDs)
	if err != nil {
		return nil, err
	}

	for i := range chats {
		c := &chats[i]
		if c.IsGroup {
			c.Participants = participants[c.ROWID]
			if c.DisplayName == "" && len(c.Participants) > 0 {
				c.DisplayName = strings.Join(c.Participants, ", ")
			}
		} else {
			c.Participants = []string{c.ChatID}
		}
		if c.DisplayName == "" {
			c.DisplayName = c.ChatID
		}
	}

	return chats, nil
}

// participantBatch keeps each query under SQLite's bound-variable limit.
const participantBatch = 500

// getAllChatParticipants fetches the participants of the given chats.
func getAllChatParticipants(db *sql.DB, chatIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string)
	for batch := range slices.Chunk(chatIDs, participantBatch) {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		rows, err := db.Query(`
			SELECT chj.chat_id, h.id
			FROM chat_handle_join chj
			JOIN handle h ON chj.handle_id = h.ROWID
			WHERE chj.chat_id IN (`+placeholders+`)
			ORDER BY chj.chat_id, h.id
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query participants: %w", err)
		}

		for rows.Next() {
			var chatID int64
			var participant string
			if err := rows.Scan(&chatID, &participant); err != nil {
				continue
			}
			out[chatID] = append(out[chatID], participant)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read participants: %w", err)
		}
	}
	return out, nil
}

// GetMessages returns the latest limit messages of a chat in chronological
// order. A limit <= 0 returns the whole chat.
func GetMessages(db *sql.DB, chatID int64, limit int) ([]Row, error) {
	query := `
		SELECT
			m.ROWID,
			COALESCE(m.text, ''),
			m.attributedBody,
			COALESCE(h.id, ''),
			m.is_from_me,
			COALESCE(m.date, 0)
		FROM message m
		JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
		LEFT JOIN handle h ON m.handle_id = h.ROWID
		WHERE cmj.chat_id = ?
		ORDER BY m.date DESC
	`
	args := []any{chatID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var date int64
		var attributedBody []byte
		if err := rows.Scan(&r.ROWID, &r.Text, &attributedBody, &r.Handle, &r.IsFromMe, &date); err != nil {
			continue
		}
		if r.Text == "" && len(attributedBody) > 0 {
			r.Text = extractTextFromAttributedBody(attributedBody)
		}
		r.Date = appleTime(date)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}

// ToMessages converts rows into chat messages. Rows without text, such as
// bare attachments, are dropped.
func ToMessages(rows []Row) []models.Message {
	out := make([]models.Message, 0, len(rows))
	for _, r := range rows {
		text := strings.TrimSpace(strings.ReplaceAll(r.Text, "\uFFFC", ""))
		if text == "" {
			continue
		}
		clock := "00:00"
		if !r.Date.IsZero() {
			clock = chat.ClockTime(r.Date)
		}
		out = append(out, models.Message{
			ID:     r.ROWID,
			Text:   text,
			Sender: r.IsFromMe,
			Time:   clock,
		})
	}
	return out
}
