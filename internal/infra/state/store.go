// Package state хранит состояние бота в одном JSON-файле.
// Файл всегда заменяется целиком через временный файл и rename,
// поэтому читатель никогда не видит частичную запись.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
)

// FileStore реализует domain.StateStore поверх файла на диске.
// Мьютекс сериализует циклы «загрузить-изменить-сохранить»: планировщик
// и обработчик команд пишут в один файл из разных горутин.
type FileStore struct {
	path        string
	defaultTime string
	chatIDs     []int64
	loc         *time.Location
	log         zerolog.Logger
	mu          sync.Mutex
}

var _ domain.StateStore = (*FileStore)(nil)

// NewFileStore создаёт хранилище. Список чатов нужен для переноса
// полей старого формата кэша в по-чатовые записи.
func NewFileStore(path, defaultAutopostTime string, chatIDs []int64, loc *time.Location, logger zerolog.Logger) *FileStore {
	return &FileStore{path: path, defaultTime: defaultAutopostTime, chatIDs: chatIDs, loc: loc, log: logger}
}

// Load читает состояние; отсутствующий или повреждённый файл
// заменяется значениями по умолчанию, процесс не падает.
func (s *FileStore) Load() *domain.AutopostState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update применяет мутацию к свежезагруженному состоянию и сохраняет
// результат, не отпуская блокировку между чтением и записью. Изменение
// затрагивает только поля, тронутые мутацией: параллельная запись
// другой горутины не откатывается устаревшим снимком.
func (s *FileStore) Update(mutate func(state *domain.AutopostState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	mutate(st)
	return s.save(st)
}

func (s *FileStore) load() *domain.AutopostState {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("не удалось прочитать кэш")
		}
		return s.defaults()
	}
	var st domain.AutopostState
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("кэш повреждён, использую значения по умолчанию")
		return s.defaults()
	}
	s.normalize(&st)
	return &st
}

// save сериализует состояние во временный файл и атомарно заменяет целевой.
func (s *FileStore) save(st *domain.AutopostState) error {
	st.UpdatedAt = time.Now().In(s.loc).Format(time.RFC3339)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("сериализация состояния: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*")
	if err != nil {
		return fmt.Errorf("создание временного файла: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("запись состояния: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("сброс состояния на диск: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("замена файла состояния: %w", err)
	}
	return nil
}

func (s *FileStore) defaults() *domain.AutopostState {
	now := time.Now().In(s.loc)
	return &domain.AutopostState{
		AutopostTime: s.defaultTime,
		Today:        emptyDay(now),
		Tomorrow:     emptyDay(now.AddDate(0, 0, 1)),
		Chats:        make(map[string]*domain.ChatState),
	}
}

// normalize дополняет загруженное состояние и переносит поля старого
// формата в по-чатовые записи; после переноса старые поля очищаются
// и при следующем сохранении исчезают из файла.
func (s *FileStore) normalize(st *domain.AutopostState) {
	if st.AutopostTime == "" {
		st.AutopostTime = s.defaultTime
	}
	if st.Chats == nil {
		st.Chats = make(map[string]*domain.ChatState)
	}
	// Самый старый формат: единственный id сообщения без привязки к чату,
	// он принадлежал единственному настроенному чату.
	if st.LegacyMessageID != 0 && st.LegacyMessageIDs == nil && len(s.chatIDs) > 0 {
		st.LegacyMessageIDs = map[string]int{
			strconv.FormatInt(s.chatIDs[0], 10): st.LegacyMessageID,
		}
	}
	st.LegacyMessageID = 0
	for key, msgID := range st.LegacyMessageIDs {
		chat, ok := st.Chats[key]
		if !ok {
			chat = &domain.ChatState{}
			st.Chats[key] = chat
		}
		if chat.LastMessageID == 0 {
			chat.LastMessageID = msgID
		}
	}
	st.LegacyMessageIDs = nil
	if st.LegacyTitle != "" {
		for _, chatID := range s.chatIDs {
			if chat := st.Chat(chatID); chat.OriginalTitle == "" {
				chat.OriginalTitle = st.LegacyTitle
			}
		}
		st.LegacyTitle = ""
	}
}

func emptyDay(date time.Time) domain.DayEntry {
	return domain.DayEntry{Date: date.Format(domain.DateLayout), Holidays: []string{}}
}
