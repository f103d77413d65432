package ioc

import (
	"context"
	"log/slog"

	"github.com/KNICEX/market-sentinel/internal/service/llm"
	"github.com/KNICEX/market-sentinel/internal/service/llm/gemini"
	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

// InitGeminiService returns nil when llm.gemini.enabled is false.
func InitGeminiService() llm.Service {
	type Config struct {
		Enabled bool     `mapstructure:"enabled"`
		ApiKey  []string `mapstructure:"api_key"`
		Model   string   `mapstructure:"model"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("llm.gemini", &cfg); err != nil {
		panic(err)
	}
	if !cfg.Enabled {
		return nil
	}

	if len(cfg.ApiKey) == 0 {
		panic("no gemini api key set")
	}

	cli, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.ApiKey[0]))
	if err != nil {
		panic(err)
	}
	slog.Info("gemini alert annotation enabled", "model", cfg.Model)
	return gemini.NewService(cli, gemini.WithModel(cfg.Model), gemini.WithTemperature(0.2), gemini.WithMaxOutputTokens(80))
}
