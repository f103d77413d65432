package ioc

import (
	"github.com/adshao/go-binance/v2"
	"github.com/spf13/viper"
)

func InitBinanceCli() *binance.Client {
	type Config struct {
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
		BaseURL   string `mapstructure:"base_url"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("cex.binance", &cfg); err != nil {
		panic(err)
	}

	// 行情接口是公开的, key 可以为空
	cli := binance.NewClient(cfg.ApiKey, cfg.ApiSecret)
	if cfg.BaseURL != "" {
		cli.BaseURL = cfg.BaseURL
	}
	return cli
}
