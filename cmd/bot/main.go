package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"tg-holiday-bot/internal/adapters/bot"
	"tg-holiday-bot/internal/adapters/calend"
	"tg-holiday-bot/internal/adapters/emoji"
	"tg-holiday-bot/internal/adapters/telegram"
	"tg-holiday-bot/internal/infra/config"
	httpinfra "tg-holiday-bot/internal/infra/http"
	"tg-holiday-bot/internal/infra/log"
	"tg-holiday-bot/internal/infra/metrics"
	"tg-holiday-bot/internal/infra/state"
	"tg-holiday-bot/internal/usecase/autopost"
	"tg-holiday-bot/internal/usecase/holidays"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.TZ).Msg("неизвестный часовой пояс")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	store := state.NewFileStore(cfg.CachePath, cfg.AutopostTime, cfg.ChatIDs(), loc, logger)
	matcher := emoji.LoadMatcher(cfg.EmojiRulesPath, logger)
	source := calend.NewClient(logger)
	holidayService := holidays.NewService(store, source, matcher, loc, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	logger.Info().Str("bot", botAPI.Self.UserName).Msg("бот запущен")

	gateway := telegram.NewGateway(botAPI, logger)
	scheduler := autopost.New(store, gateway, holidayService, cfg.ChatIDs(), loc, logger)
	handler := bot.NewHandler(botAPI, logger, holidayService, matcher)

	srv := httpinfra.NewServer(logger)
	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go scheduler.Run(ctx)
	go handler.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("остановка бота")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
