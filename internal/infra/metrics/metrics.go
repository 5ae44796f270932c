package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AutopostRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autopost_runs_total",
		Help: "Количество запусков ежедневного автопоста",
	})
	AutopostChatErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autopost_chat_errors_total",
		Help: "Ошибки автопоста по чатам",
	}, []string{"chat_id"})
	BotSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "holiday_fetch_duration_seconds",
		Help:    "Длительность загрузки страницы календаря",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	CommandRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_command_requests_total",
		Help: "Количество обработанных команд бота",
	}, []string{"command"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		AutopostRuns,
		AutopostChatErrors,
		BotSendErrors,
		SourceFetchDuration,
		CommandRequests,
	)
}

// ObserveFetch записывает длительность и статус обращения к источнику.
func ObserveFetch(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SourceFetchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// IncAutopostChatError увеличивает счётчик ошибок автопоста для чата.
func IncAutopostChatError(chatID int64) {
	AutopostChatErrors.WithLabelValues(strconv.FormatInt(chatID, 10)).Inc()
}

// IncCommand увеличивает счётчик обработанных команд.
func IncCommand(command string) {
	CommandRequests.WithLabelValues(command).Inc()
}
