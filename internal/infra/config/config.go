package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Moscow"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token string `envconfig:"BOT_TOKEN"`
	} `envconfig:""`

	// TARGET_CHAT_IDS — список через запятую; TARGET_CHAT_ID поддерживается
	// для совместимости со старыми развёртываниями.
	TargetChatIDs []int64 `envconfig:"TARGET_CHAT_IDS"`
	TargetChatID  int64   `envconfig:"TARGET_CHAT_ID"`

	CachePath      string `envconfig:"HOLIDAY_CACHE_PATH" default:"holiday_cache.json"`
	EmojiRulesPath string `envconfig:"EMOJI_RULES_PATH" default:"holiday_emojis.json"`
	AutopostTime   string `envconfig:"AUTOPOST_TIME" default:"00:00"`
}

// Load загружает конфиг из окружения и .env.
func Load() AppConfig {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	if cfg.Telegram.Token == "" {
		log.Fatal("BOT_TOKEN не задан")
	}
	if len(cfg.ChatIDs()) == 0 {
		log.Fatal("TARGET_CHAT_IDS или TARGET_CHAT_ID не задан")
	}
	return cfg
}

// ChatIDs возвращает список чатов для автопоста.
func (c AppConfig) ChatIDs() []int64 {
	if len(c.TargetChatIDs) > 0 {
		return c.TargetChatIDs
	}
	if c.TargetChatID != 0 {
		return []int64{c.TargetChatID}
	}
	return nil
}
