package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-holiday-bot/internal/domain"
	"tg-holiday-bot/internal/infra/metrics"
)

// Gateway реализует domain.ChatGateway поверх Bot API.
type Gateway struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

var _ domain.ChatGateway = (*Gateway)(nil)

// NewGateway создаёт шлюз.
func NewGateway(bot *tgbotapi.BotAPI, logger zerolog.Logger) *Gateway {
	return &Gateway{bot: bot, log: logger}
}

// SendMessage отправляет текст и возвращает id сообщения.
func (g *Gateway) SendMessage(chatID int64, text string) (int, error) {
	msg, err := g.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		metrics.BotSendErrors.Inc()
		return 0, fmt.Errorf("отправка сообщения в чат %d: %w", chatID, err)
	}
	return msg.MessageID, nil
}

// PinMessage закрепляет сообщение с уведомлением участников.
func (g *Gateway) PinMessage(chatID int64, messageID int) error {
	_, err := g.bot.Request(tgbotapi.PinChatMessageConfig{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("закрепление сообщения %d в чате %d: %w", messageID, chatID, err)
	}
	return nil
}

// UnpinMessage открепляет сообщение.
func (g *Gateway) UnpinMessage(chatID int64, messageID int) error {
	_, err := g.bot.Request(tgbotapi.UnpinChatMessageConfig{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("открепление сообщения %d в чате %d: %w", messageID, chatID, err)
	}
	return nil
}

// ChatTitle возвращает текущее название чата.
func (g *Gateway) ChatTitle(chatID int64) (string, error) {
	chat, err := g.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", fmt.Errorf("получение чата %d: %w", chatID, err)
	}
	return chat.Title, nil
}

// SetChatTitle меняет название чата.
func (g *Gateway) SetChatTitle(chatID int64, title string) error {
	_, err := g.bot.Request(tgbotapi.SetChatTitleConfig{
		ChatID: chatID,
		Title:  title,
	})
	if err != nil {
		return fmt.Errorf("смена названия чата %d: %w", chatID, err)
	}
	return nil
}
