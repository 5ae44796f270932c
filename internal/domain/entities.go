package domain

import (
	"strconv"
	"time"
)

// DateLayout — формат дат в кэше.
const DateLayout = "2006-01-02"

// DefaultEmoji используется, когда для праздника не нашлось своего эмодзи.
const DefaultEmoji = "🎉"

// HolidayResult — праздники на конкретную дату.
type HolidayResult struct {
	Date      time.Time
	Holidays  []string
	SourceURL string
	FetchedAt time.Time
	Err       string
}

// HasData сообщает, есть ли в результате хотя бы один праздник.
func (r HolidayResult) HasData() bool { return len(r.Holidays) > 0 }

// DayEntry — сохранённый в кэше список праздников на один день.
type DayEntry struct {
	Date      string   `json:"date"`
	Holidays  []string `json:"holidays"`
	FetchedAt string   `json:"fetched_at,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// ChatState хранит состояние автопоста для одного чата.
type ChatState struct {
	LastMessageID  int    `json:"last_message_id,omitempty"`
	LastPostedDate string `json:"last_posted_date,omitempty"`
	OriginalTitle  string `json:"original_title,omitempty"`
	TitlePrefix    string `json:"title_prefix,omitempty"`
}

// AutopostState — всё долговременное состояние бота, один JSON-файл.
type AutopostState struct {
	AutopostTime string                `json:"autopost_time"`
	UpdatedAt    string                `json:"updated_at,omitempty"`
	Today        DayEntry              `json:"today"`
	Tomorrow     DayEntry              `json:"tomorrow"`
	LastRunDate  string                `json:"last_run_date,omitempty"`
	Chats        map[string]*ChatState `json:"chats,omitempty"`

	// Поля старого формата кэша, переносятся в Chats при загрузке.
	LegacyMessageID  int            `json:"autopost_message_id,omitempty"`
	LegacyMessageIDs map[string]int `json:"autopost_message_ids,omitempty"`
	LegacyTitle      string         `json:"original_chat_title,omitempty"`
}

// Chat возвращает состояние чата, создавая запись при необходимости.
func (s *AutopostState) Chat(chatID int64) *ChatState {
	if s.Chats == nil {
		s.Chats = make(map[string]*ChatState)
	}
	key := strconv.FormatInt(chatID, 10)
	chat, ok := s.Chats[key]
	if !ok {
		chat = &ChatState{}
		s.Chats[key] = chat
	}
	return chat
}
