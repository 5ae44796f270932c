// Package autopost реализует ежедневный автопост праздника:
// отправку и закрепление сообщения, снятие вчерашнего закрепа
// и эмодзи-префикс в названии чата.
package autopost

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
	"tg-holiday-bot/internal/infra/metrics"
)

// HolidayProvider отдаёт праздники на сегодня и выбор для автопоста.
type HolidayProvider interface {
	Today(ctx context.Context) domain.HolidayResult
	SelectForAutopost(holidays []string) (name, emoji string, ok bool)
}

// Scheduler выполняет автопост не чаще раза в календарный день.
//
// Машина состояний живёт в кэше, а не в памяти процесса, поэтому
// переживает рестарты: last_run_date фиксирует выполненный день
// глобально, last_posted_date каждого чата защищает от повторной
// отправки при падении посреди прохода по чатам.
type Scheduler struct {
	store    domain.StateStore
	gateway  domain.ChatGateway
	holidays HolidayProvider
	chatIDs  []int64
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// New создаёт планировщик.
func New(store domain.StateStore, gateway domain.ChatGateway, holidays HolidayProvider, chatIDs []int64, loc *time.Location, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		gateway:  gateway,
		holidays: holidays,
		chatIDs:  chatIDs,
		loc:      loc,
		now:      time.Now,
		log:      logger,
	}
}

// Run крутит минутный цикл до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Str("time", s.store.Load().AutopostTime).Msg("планировщик автопоста запущен")
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick проверяет, наступила ли минута автопоста, и выполняет дневной проход.
// Время автопоста перечитывается из кэша на каждом тике, поэтому команда
// /autopost_time действует без перезапуска.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now().In(s.loc)
	st := s.store.Load()
	if st.LastRunDate == now.Format(domain.DateLayout) {
		return
	}
	if now.Format("15:04") != st.AutopostTime {
		return
	}
	s.RunDaily(ctx, now)
}

// RunDaily выполняет автопост по всем настроенным чатам и фиксирует день.
// Ошибка одного чата не мешает остальным; чат без ошибок помечается
// датой сразу, чтобы рестарт посреди прохода не продублировал пост.
//
// Состояние пишется точечно через Update: пока идут сетевые вызовы
// одного чата, обработчик команд может сохранить /autopost_time или
// обновить кэш праздников, и эти записи не затираются снимком планировщика.
func (s *Scheduler) RunDaily(ctx context.Context, now time.Time) {
	metrics.AutopostRuns.Inc()
	today := now.Format(domain.DateLayout)
	s.log.Info().Str("date", today).Msg("запуск автопоста")

	res := s.holidays.Today(ctx)
	text, emoji := s.composeMessage(res)

	for _, chatID := range s.chatIDs {
		chat := s.store.Load().Chat(chatID)
		if chat.LastPostedDate == today {
			s.log.Info().Int64("chat", chatID).Msg("автопост в этот чат сегодня уже отправлен")
			continue
		}
		if err := s.postToChat(chatID, chat, text, emoji); err != nil {
			metrics.IncAutopostChatError(chatID)
			s.log.Error().Err(err).Int64("chat", chatID).Msg("автопост не выполнен для чата")
			continue
		}
		chat.LastPostedDate = today
		posted := *chat
		err := s.store.Update(func(st *domain.AutopostState) {
			*st.Chat(chatID) = posted
		})
		if err != nil {
			s.log.Error().Err(err).Msg("не удалось сохранить состояние автопоста")
		}
	}

	err := s.store.Update(func(st *domain.AutopostState) {
		st.LastRunDate = today
	})
	if err != nil {
		s.log.Error().Err(err).Msg("не удалось зафиксировать дату автопоста")
	}
}

// composeMessage подбирает текст автопоста и эмодзи дня.
// Без праздников отправляется текст-заглушка, эмодзи дня нет.
func (s *Scheduler) composeMessage(res domain.HolidayResult) (string, string) {
	if name, emoji, ok := s.holidays.SelectForAutopost(res.Holidays); ok {
		return fmt.Sprintf("%s Сегодня %s!", emoji, name), emoji
	}
	if res.Err != "" {
		return res.Err, ""
	}
	return "Праздников не найдено.", ""
}

// postToChat выполняет транзакцию одного чата: отправить, закрепить,
// снять прошлый закреп, обновить название. Фатальна только отправка;
// остальные шаги при ошибке логируются и пропускаются.
func (s *Scheduler) postToChat(chatID int64, chat *domain.ChatState, text, emoji string) error {
	msgID, err := s.gateway.SendMessage(chatID, text)
	if err != nil {
		return fmt.Errorf("отправка автопоста: %w", err)
	}

	if err := s.gateway.PinMessage(chatID, msgID); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("не удалось закрепить автопост")
	} else if chat.LastMessageID != 0 {
		// Старый закреп снимается только после успешного нового.
		if err := s.gateway.UnpinMessage(chatID, chat.LastMessageID); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Int("message", chat.LastMessageID).Msg("не удалось открепить предыдущий автопост")
		}
	}
	chat.LastMessageID = msgID

	if emoji != "" {
		if err := s.updateTitle(chatID, chat, emoji); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("не удалось обновить название чата")
		}
	}
	return nil
}

// updateTitle ставит эмодзи-префикс, сохраняя исходное название чата.
// Если название поменяли вручную, оно принимается за новое исходное —
// префиксы не накапливаются.
func (s *Scheduler) updateTitle(chatID int64, chat *domain.ChatState, emoji string) error {
	live, err := s.gateway.ChatTitle(chatID)
	if err != nil {
		return fmt.Errorf("получение названия чата: %w", err)
	}

	cleaned := StripTitlePrefix(live)
	if chat.OriginalTitle == "" || (cleaned != "" && cleaned != chat.OriginalTitle) {
		chat.OriginalTitle = cleaned
	}

	newTitle := emoji
	if chat.OriginalTitle != "" {
		newTitle = emoji + " " + chat.OriginalTitle
	}
	if newTitle != live {
		if err := s.gateway.SetChatTitle(chatID, newTitle); err != nil {
			return err
		}
	}
	chat.TitlePrefix = emoji
	return nil
}

// StripTitlePrefix убирает ведущие эмодзи и пунктуацию из названия чата.
func StripTitlePrefix(title string) string {
	return strings.TrimSpace(strings.TrimLeftFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	}))
}
