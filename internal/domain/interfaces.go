package domain

import (
	"context"
	"time"
)

// HolidaySource получает список праздников на дату из внешнего источника.
type HolidaySource interface {
	FetchDay(ctx context.Context, date time.Time) ([]string, error)
	DayURL(date time.Time) string
}

// EmojiMatcher подбирает эмодзи к названию праздника.
type EmojiMatcher interface {
	Match(name string) string
	Decorate(name string) string
}

// StateStore — долговременное состояние бота в одном файле.
// Load не возвращает ошибку: повреждённый или отсутствующий файл
// заменяется значениями по умолчанию. Вся запись идёт через Update:
// загрузка, мутация и сохранение выполняются под одной блокировкой,
// поэтому параллельные записи из разных горутин не теряют друг друга.
type StateStore interface {
	Load() *AutopostState
	Update(mutate func(state *AutopostState)) error
}

// ChatGateway — операции платформы, нужные автопосту.
type ChatGateway interface {
	SendMessage(chatID int64, text string) (int, error)
	PinMessage(chatID int64, messageID int) error
	UnpinMessage(chatID int64, messageID int) error
	ChatTitle(chatID int64) (string, error)
	SetChatTitle(chatID int64, title string) error
}
