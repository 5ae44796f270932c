package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/adapters/telegram"
	"tg-holiday-bot/internal/domain"
	"tg-holiday-bot/internal/infra/metrics"
	"tg-holiday-bot/internal/usecase/holidays"
)

// Handler обслуживает команды и инлайн-запросы бота.
type Handler struct {
	bot      *tgbotapi.BotAPI
	log      zerolog.Logger
	holidays *holidays.Service
	matcher  domain.EmojiMatcher
}

// NewHandler создаёт обработчик.
func NewHandler(botAPI *tgbotapi.BotAPI, logger zerolog.Logger, holidayUC *holidays.Service, matcher domain.EmojiMatcher) *Handler {
	return &Handler{bot: botAPI, log: logger, holidays: holidayUC, matcher: matcher}
}

// Run обрабатывает апдейты long polling до отмены контекста.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate обрабатывает один апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	case upd.InlineQuery != nil:
		h.handleInline(ctx, upd.InlineQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		h.reply(msg.Chat.ID, h.buildHelpMessage())
	case strings.HasPrefix(text, "/help"):
		h.reply(msg.Chat.ID, h.buildHelpMessage())
	case strings.HasPrefix(text, "/today"):
		metrics.IncCommand("today")
		h.reply(msg.Chat.ID, h.todayText(ctx))
	case strings.HasPrefix(text, "/autopost_time"):
		metrics.IncCommand("autopost_time")
		payload := strings.TrimSpace(strings.TrimPrefix(text, "/autopost_time"))
		h.handleAutopostTime(msg.Chat.ID, payload)
	}
	// Прочие сообщения игнорируются: бот живёт в группах.
}

func (h *Handler) handleAutopostTime(chatID int64, payload string) {
	if payload == "" {
		h.reply(chatID, fmt.Sprintf("Текущее время автопоста: %s\nИзменить: /autopost_time ЧЧ:ММ", h.holidays.AutopostTime()))
		return
	}
	normalized, err := h.holidays.SetAutopostTime(payload)
	switch {
	case errors.Is(err, holidays.ErrBadTime):
		h.reply(chatID, "Время должно быть в формате ЧЧ:ММ, например /autopost_time 09:00")
	case err != nil:
		h.log.Error().Err(err).Msg("не удалось сохранить время автопоста")
		h.reply(chatID, "Не удалось сохранить время автопоста, попробуйте позже.")
	default:
		h.reply(chatID, fmt.Sprintf("Время автопоста обновлено: %s", normalized))
	}
}

func (h *Handler) handleInline(ctx context.Context, query *tgbotapi.InlineQuery) {
	text := h.todayText(ctx)
	article := tgbotapi.NewInlineQueryResultArticle(uuid.NewString(), "Праздники сегодня", text)
	article.Description = firstLine(text)

	if _, err := h.bot.Request(tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       []interface{}{article},
		CacheTime:     30,
	}); err != nil {
		h.log.Error().Err(err).Msg("не удалось ответить на инлайн-запрос")
	}
}

func (h *Handler) todayText(ctx context.Context) string {
	res := h.holidays.Today(ctx)
	return holidays.FormatResult(res, h.matcher)
}

func (h *Handler) buildHelpMessage() string {
	return strings.Join([]string{
		"Я публикую праздники с calend.ru.",
		"",
		"/today — праздники на сегодня",
		"/autopost_time ЧЧ:ММ — время ежедневного автопоста",
		"",
		"В инлайн-режиме пришлю список праздников в любой чат.",
	}, "\n")
}

func (h *Handler) reply(chatID int64, text string) {
	for _, part := range telegram.SplitMessage(text) {
		if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			metrics.BotSendErrors.Inc()
			h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось отправить ответ")
			return
		}
	}
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
