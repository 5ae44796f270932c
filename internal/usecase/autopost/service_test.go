package autopost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
)

type memStore struct {
	raw []byte
}

func newMemStore(st *domain.AutopostState) *memStore {
	s := &memStore{}
	_ = s.Save(st)
	return s
}

func (s *memStore) Load() *domain.AutopostState {
	var st domain.AutopostState
	if err := json.Unmarshal(s.raw, &st); err != nil {
		panic(err)
	}
	if st.Chats == nil {
		st.Chats = make(map[string]*domain.ChatState)
	}
	return &st
}

func (s *memStore) Save(st *domain.AutopostState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.raw = raw
	return nil
}

func (s *memStore) Update(mutate func(*domain.AutopostState)) error {
	st := s.Load()
	mutate(st)
	return s.Save(st)
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeGateway struct {
	titles map[int64]string

	sent     []sentMessage
	pinned   []int
	unpinned []int
	setTitle []string

	nextMessageID int
	sendErrFor    map[int64]error
	pinErr        error
	onSend        func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{titles: map[int64]string{}, nextMessageID: 100}
}

func (g *fakeGateway) SendMessage(chatID int64, text string) (int, error) {
	if g.onSend != nil {
		g.onSend()
	}
	if err := g.sendErrFor[chatID]; err != nil {
		return 0, err
	}
	g.nextMessageID++
	g.sent = append(g.sent, sentMessage{chatID: chatID, text: text})
	return g.nextMessageID, nil
}

func (g *fakeGateway) PinMessage(chatID int64, messageID int) error {
	if g.pinErr != nil {
		return g.pinErr
	}
	g.pinned = append(g.pinned, messageID)
	return nil
}

func (g *fakeGateway) UnpinMessage(chatID int64, messageID int) error {
	g.unpinned = append(g.unpinned, messageID)
	return nil
}

func (g *fakeGateway) ChatTitle(chatID int64) (string, error) {
	return g.titles[chatID], nil
}

func (g *fakeGateway) SetChatTitle(chatID int64, title string) error {
	g.titles[chatID] = title
	g.setTitle = append(g.setTitle, fmt.Sprintf("%d:%s", chatID, title))
	return nil
}

type fakeProvider struct {
	res   domain.HolidayResult
	name  string
	emoji string
	ok    bool
}

func (p *fakeProvider) Today(context.Context) domain.HolidayResult { return p.res }

func (p *fakeProvider) SelectForAutopost([]string) (string, string, bool) {
	return p.name, p.emoji, p.ok
}

func newTestScheduler(st *domain.AutopostState, gw *fakeGateway, provider *fakeProvider, chatIDs []int64, now time.Time) (*Scheduler, *memStore) {
	store := newMemStore(st)
	sched := New(store, gw, provider, chatIDs, time.UTC, zerolog.Nop())
	sched.now = func() time.Time { return now }
	return sched, store
}

func radioProvider() *fakeProvider {
	return &fakeProvider{
		res:   domain.HolidayResult{Holidays: []string{"Международный день радио"}},
		name:  "Международный день радио",
		emoji: "📡",
		ok:    true,
	}
}

func TestTickPostsToAllChatsAtConfiguredTime(t *testing.T) {
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	gw.titles[1] = "Первый чат"
	gw.titles[2] = "Второй чат"
	sched, store := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, gw, radioProvider(), []int64{1, 2}, now)

	sched.Tick(context.Background())

	if len(gw.sent) != 2 {
		t.Fatalf("ожидали 2 сообщения, отправлено %d", len(gw.sent))
	}
	for _, msg := range gw.sent {
		if msg.text != "📡 Сегодня Международный день радио!" {
			t.Fatalf("неожиданный текст автопоста: %q", msg.text)
		}
	}
	if len(gw.pinned) != 2 {
		t.Fatalf("оба сообщения должны быть закреплены, закреплено %d", len(gw.pinned))
	}
	if gw.titles[1] != "📡 Первый чат" || gw.titles[2] != "📡 Второй чат" {
		t.Fatalf("названия чатов не обновлены: %q, %q", gw.titles[1], gw.titles[2])
	}

	st := store.Load()
	if st.LastRunDate != "2025-05-07" {
		t.Fatalf("дата запуска не зафиксирована: %s", st.LastRunDate)
	}
	for _, chatID := range []int64{1, 2} {
		chat := st.Chat(chatID)
		if chat.LastMessageID == 0 {
			t.Fatalf("id сообщения не записан для чата %d", chatID)
		}
		if chat.LastPostedDate != "2025-05-07" {
			t.Fatalf("дата отправки не записана для чата %d", chatID)
		}
	}
}

func TestTickIsNoopWhenAlreadyRanToday(t *testing.T) {
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	st := &domain.AutopostState{AutopostTime: "09:00", LastRunDate: "2025-05-07"}
	sched, _ := newTestScheduler(st, gw, radioProvider(), []int64{1}, now)

	sched.Tick(context.Background())

	if len(gw.sent) != 0 || len(gw.pinned) != 0 {
		t.Fatal("повторный запуск в тот же день должен быть no-op")
	}
}

func TestTickIgnoresOtherMinutes(t *testing.T) {
	now := time.Date(2025, time.May, 7, 8, 59, 0, 0, time.UTC)
	gw := newFakeGateway()
	sched, _ := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, gw, radioProvider(), []int64{1}, now)

	sched.Tick(context.Background())

	if len(gw.sent) != 0 {
		t.Fatal("до настроенной минуты отправки быть не должно")
	}
}

func TestRunDailySkipsChatsPostedToday(t *testing.T) {
	// Рестарт посреди дневного прохода: первый чат уже получил пост,
	// повторный проход должен затронуть только второй.
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	st := &domain.AutopostState{
		AutopostTime: "09:00",
		Chats: map[string]*domain.ChatState{
			"1": {LastMessageID: 50, LastPostedDate: "2025-05-07"},
		},
	}
	sched, store := newTestScheduler(st, gw, radioProvider(), []int64{1, 2}, now)

	sched.RunDaily(context.Background(), now)

	if len(gw.sent) != 1 || gw.sent[0].chatID != 2 {
		t.Fatalf("ожидали одну отправку во второй чат, получили %+v", gw.sent)
	}
	if got := store.Load().Chat(1).LastMessageID; got != 50 {
		t.Fatalf("состояние первого чата не должно меняться: %d", got)
	}
}

func TestRunDailyKeepsWritesLandedMidPass(t *testing.T) {
	// Пока планировщик занят сетевыми вызовами, обработчик команд может
	// сохранить новое время автопоста. Эта запись не должна откатываться
	// снимком планировщика.
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	sched, store := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, gw, radioProvider(), []int64{1}, now)
	gw.onSend = func() {
		if err := store.Update(func(st *domain.AutopostState) { st.AutopostTime = "21:00" }); err != nil {
			t.Fatal(err)
		}
	}

	sched.RunDaily(context.Background(), now)

	st := store.Load()
	if st.AutopostTime != "21:00" {
		t.Fatalf("изменение времени автопоста потеряно: %q", st.AutopostTime)
	}
	if st.LastRunDate != "2025-05-07" || st.Chat(1).LastPostedDate != "2025-05-07" {
		t.Fatalf("результат прохода не зафиксирован: %+v", st)
	}
}

func TestRunDailyChatFailureDoesNotBlockOthers(t *testing.T) {
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	gw.sendErrFor = map[int64]error{1: errors.New("bot was kicked")}
	sched, store := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, gw, radioProvider(), []int64{1, 2}, now)

	sched.RunDaily(context.Background(), now)

	if len(gw.sent) != 1 || gw.sent[0].chatID != 2 {
		t.Fatalf("второй чат должен получить пост несмотря на ошибку первого: %+v", gw.sent)
	}

	st := store.Load()
	if st.LastRunDate != "2025-05-07" {
		t.Fatal("день должен фиксироваться даже при частичном сбое")
	}
	if st.Chat(1).LastPostedDate != "" {
		t.Fatal("неудавшийся чат не должен помечаться отправленным")
	}
	if st.Chat(2).LastPostedDate != "2025-05-07" {
		t.Fatal("успешный чат должен быть помечен отправленным")
	}
}

func TestPostToChatUnpinsPreviousAfterNewPin(t *testing.T) {
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	st := &domain.AutopostState{
		AutopostTime: "09:00",
		Chats:        map[string]*domain.ChatState{"1": {LastMessageID: 7}},
	}
	sched, _ := newTestScheduler(st, gw, radioProvider(), []int64{1}, now)

	sched.RunDaily(context.Background(), now)

	if len(gw.pinned) != 1 || len(gw.unpinned) != 1 {
		t.Fatalf("ожидали один закреп и один откреп: pinned=%v unpinned=%v", gw.pinned, gw.unpinned)
	}
	if gw.unpinned[0] != 7 {
		t.Fatalf("откреплён не тот пост: %d", gw.unpinned[0])
	}
}

func TestPostToChatSkipsUnpinWhenPinFails(t *testing.T) {
	now := time.Date(2025, time.May, 7, 9, 0, 0, 0, time.UTC)
	gw := newFakeGateway()
	gw.pinErr = errors.New("not enough rights")
	st := &domain.AutopostState{
		AutopostTime: "09:00",
		Chats:        map[string]*domain.ChatState{"1": {LastMessageID: 7}},
	}
	sched, store := newTestScheduler(st, gw, radioProvider(), []int64{1}, now)

	sched.RunDaily(context.Background(), now)

	if len(gw.unpinned) != 0 {
		t.Fatal("старый закреп снимается только после успешного нового")
	}
	// Сбой закрепа не фатален: пост отправлен и чат помечен.
	if store.Load().Chat(1).LastPostedDate != "2025-05-07" {
		t.Fatal("чат должен быть помечен отправленным")
	}
}

func TestUpdateTitleDoesNotStackPrefixes(t *testing.T) {
	gw := newFakeGateway()
	gw.titles[1] = "🎉 Chat"
	sched, _ := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, gw, radioProvider(), []int64{1}, time.Now())

	chat := &domain.ChatState{OriginalTitle: "Chat"}
	if err := sched.updateTitle(1, chat, "🎉"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gw.titles[1] != "🎉 Chat" {
		t.Fatalf("префикс не должен накапливаться: %q", gw.titles[1])
	}
	if len(gw.setTitle) != 0 {
		t.Fatal("название уже корректно, SetChatTitle не нужен")
	}

	// На следующий день меняется эмодзи, исходное название сохраняется.
	if err := sched.updateTitle(1, chat, "🎂"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if gw.titles[1] != "🎂 Chat" {
		t.Fatalf("ожидали смену префикса: %q", gw.titles[1])
	}
}

func TestUpdateTitleAdoptsManualRename(t *testing.T) {
	gw := newFakeGateway()
	gw.titles[1] = "Новое имя"
	sched, _ := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, gw, radioProvider(), []int64{1}, time.Now())

	chat := &domain.ChatState{OriginalTitle: "Chat"}
	if err := sched.updateTitle(1, chat, "📡"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if chat.OriginalTitle != "Новое имя" {
		t.Fatalf("ручное переименование должно стать новым исходным: %q", chat.OriginalTitle)
	}
	if gw.titles[1] != "📡 Новое имя" {
		t.Fatalf("неожиданное название: %q", gw.titles[1])
	}
}

func TestComposeMessageFallbacks(t *testing.T) {
	provider := &fakeProvider{res: domain.HolidayResult{Err: "Не удалось получить данные о праздниках."}}
	sched, _ := newTestScheduler(&domain.AutopostState{AutopostTime: "09:00"}, newFakeGateway(), provider, []int64{1}, time.Now())

	text, emoji := sched.composeMessage(provider.res)
	if text != provider.res.Err || emoji != "" {
		t.Fatalf("ожидали текст ошибки без эмодзи, получили %q %q", text, emoji)
	}

	text, emoji = sched.composeMessage(domain.HolidayResult{})
	if text != "Праздников не найдено." || emoji != "" {
		t.Fatalf("ожидали заглушку, получили %q %q", text, emoji)
	}
}

func TestStripTitlePrefix(t *testing.T) {
	cases := map[string]string{
		"🎉 Chat":        "Chat",
		"Chat":           "Chat",
		"🎖️✨ Моя группа": "Моя группа",
		"  📡Болталка":    "Болталка",
		"":               "",
	}
	for in, want := range cases {
		if got := StripTitlePrefix(in); got != want {
			t.Fatalf("StripTitlePrefix(%q): ожидали %q, получили %q", in, want, got)
		}
	}
}
