// Package holidays отвечает за получение, кэширование и выбор праздников.
package holidays

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
)

// Тексты, которые видят пользователи при отсутствии данных.
const (
	msgFetchFailed = "Не удалось получить данные о праздниках."
	msgStaleData   = "Не удалось обновить данные о праздниках, показаны сохранённые ранее."
	msgNoneFound   = "Праздников не найдено."
)

// ErrBadTime возвращается при некорректном формате времени автопоста.
var ErrBadTime = errors.New("время должно быть в формате ЧЧ:ММ")

// Service реализует бизнес-логику праздников поверх источника и кэша.
type Service struct {
	store  domain.StateStore
	source domain.HolidaySource
	match  domain.EmojiMatcher
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
	mu     sync.Mutex
}

// NewService создаёт сервис.
func NewService(store domain.StateStore, source domain.HolidaySource, matcher domain.EmojiMatcher, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{store: store, source: source, match: matcher, loc: loc, now: time.Now, log: logger}
}

// Today возвращает праздники на сегодня, предпочитая кэш.
// При недоступном источнике отдаёт устаревшие данные с пометкой.
func (s *Service) Today(ctx context.Context) domain.HolidayResult {
	now := s.now().In(s.loc)
	today := dateOnly(now, s.loc)

	st := s.store.Load()
	if cached, ok := s.entryFor(st, today); ok && cached.HasData() {
		return cached
	}

	refreshed, err := s.Refresh(ctx)
	if err == nil {
		st = s.store.Load()
		if cached, ok := s.entryFor(st, today); ok {
			return cached
		}
		// Предполуночное окно: кэш уже сдвинут на следующий день.
		return refreshed
	}
	s.log.Warn().Err(err).Msg("не удалось обновить кэш праздников")

	if cached, ok := s.entryFor(st, today); ok {
		cached.Err = msgStaleData
		return cached
	}
	return domain.HolidayResult{Date: today, FetchedAt: now, Err: msgFetchFailed}
}

// Refresh перезагружает кэш на сегодня и завтра.
// calend.ru публикует новый день около 00:05, поэтому с 23:45 данные
// забираются со сдвигом на день вперёд — автопост в 00:00 найдёт их в кэше.
func (s *Service) Refresh(ctx context.Context) (domain.HolidayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(s.loc)
	todayDate := dateOnly(now, s.loc)
	if now.Hour() == 23 && now.Minute() >= 45 {
		todayDate = todayDate.AddDate(0, 0, 1)
	}
	tomorrowDate := todayDate.AddDate(0, 0, 1)

	todayHolidays, err := s.source.FetchDay(ctx, todayDate)
	if err != nil {
		return domain.HolidayResult{}, fmt.Errorf("загрузка праздников на %s: %w", todayDate.Format(domain.DateLayout), err)
	}
	tomorrowHolidays, err := s.source.FetchDay(ctx, tomorrowDate)
	if err != nil {
		return domain.HolidayResult{}, fmt.Errorf("загрузка праздников на %s: %w", tomorrowDate.Format(domain.DateLayout), err)
	}

	todayEntry := s.dayEntry(todayDate, todayHolidays, now)
	tomorrowEntry := s.dayEntry(tomorrowDate, tomorrowHolidays, now)
	err = s.store.Update(func(st *domain.AutopostState) {
		st.Today = todayEntry
		st.Tomorrow = tomorrowEntry
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("не удалось сохранить кэш праздников")
	}
	s.log.Info().
		Str("today", todayEntry.Date).Int("today_count", len(todayHolidays)).
		Str("tomorrow", tomorrowEntry.Date).Int("tomorrow_count", len(tomorrowHolidays)).
		Msg("кэш праздников обновлён")

	return s.entryToResult(todayEntry), nil
}

// SelectForAutopost выбирает один праздник для автопоста: первый со своим
// эмодзи, иначе первый в списке. Выбор детерминирован при одинаковом входе.
func (s *Service) SelectForAutopost(holidays []string) (name, emoji string, ok bool) {
	if len(holidays) == 0 {
		return "", "", false
	}
	for _, h := range holidays {
		if em := s.match.Match(h); em != domain.DefaultEmoji {
			return h, em, true
		}
	}
	first := holidays[0]
	return first, s.match.Match(first), true
}

// AutopostTime возвращает сохранённое время автопоста.
func (s *Service) AutopostTime() string {
	return s.store.Load().AutopostTime
}

// SetAutopostTime нормализует и сохраняет новое время автопоста.
// Планировщик подхватит его на ближайшем тике.
func (s *Service) SetAutopostTime(raw string) (string, error) {
	normalized, err := NormalizeTime(raw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store.Load().AutopostTime == normalized {
		return normalized, nil
	}
	err = s.store.Update(func(st *domain.AutopostState) {
		st.AutopostTime = normalized
	})
	if err != nil {
		return "", fmt.Errorf("сохранение времени автопоста: %w", err)
	}
	s.log.Info().Str("time", normalized).Msg("время автопоста обновлено")
	return normalized, nil
}

// NormalizeTime приводит строку к виду ЧЧ:ММ.
func NormalizeTime(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrBadTime
	}
	parsed, err := time.Parse("15:04", trimmed)
	if err != nil {
		return "", ErrBadTime
	}
	return parsed.Format("15:04"), nil
}

// entryFor ищет дату в записях «сегодня» и «завтра».
func (s *Service) entryFor(st *domain.AutopostState, date time.Time) (domain.HolidayResult, bool) {
	want := date.Format(domain.DateLayout)
	for _, entry := range []domain.DayEntry{st.Today, st.Tomorrow} {
		if entry.Date == want {
			return s.entryToResult(entry), true
		}
	}
	return domain.HolidayResult{}, false
}

func (s *Service) entryToResult(entry domain.DayEntry) domain.HolidayResult {
	date, err := time.ParseInLocation(domain.DateLayout, entry.Date, s.loc)
	if err != nil {
		date = dateOnly(s.now().In(s.loc), s.loc)
	}
	fetchedAt, err := time.Parse(time.RFC3339, entry.FetchedAt)
	if err != nil {
		fetchedAt = s.now().In(s.loc)
	}
	res := domain.HolidayResult{
		Date:      date,
		Holidays:  entry.Holidays,
		SourceURL: entry.SourceURL,
		FetchedAt: fetchedAt,
	}
	if !res.HasData() {
		if date.Equal(dateOnly(s.now().In(s.loc), s.loc)) {
			res.Err = "Не найдено праздников на сегодня."
		} else {
			res.Err = fmt.Sprintf("Не найдено праздников на %s.", date.Format("02.01.2006"))
		}
	}
	return res
}

func (s *Service) dayEntry(date time.Time, holidays []string, fetchedAt time.Time) domain.DayEntry {
	if holidays == nil {
		holidays = []string{}
	}
	return domain.DayEntry{
		Date:      date.Format(domain.DateLayout),
		Holidays:  holidays,
		FetchedAt: fetchedAt.Format(time.RFC3339),
		SourceURL: s.source.DayURL(date),
	}
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
