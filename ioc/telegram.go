package ioc

import (
	"log/slog"

	"github.com/KNICEX/market-sentinel/internal/service/notification/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"
)

// InitTelegram returns nil when telegram.enabled is false.
func InitTelegram() *telegram.Client {
	type Config struct {
		Enabled  bool   `mapstructure:"enabled"`
		BotToken string `mapstructure:"bot_token"`
		ChatID   int64  `mapstructure:"chat_id"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("telegram", &cfg); err != nil {
		panic(err)
	}
	if !cfg.Enabled {
		return nil
	}
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		panic("telegram enabled but bot_token or chat_id is missing")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		panic(err)
	}
	slog.Info("telegram bot authorized", "account", bot.Self.UserName, "chat", cfg.ChatID)
	return telegram.NewClient(bot, cfg.ChatID)
}
