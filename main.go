package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/KNICEX/market-sentinel/internal/schedule"
	"github.com/KNICEX/market-sentinel/internal/service/command"
	"github.com/KNICEX/market-sentinel/internal/service/exchange/binance"
	"github.com/KNICEX/market-sentinel/internal/service/monitor"
	"github.com/KNICEX/market-sentinel/internal/service/notification"
	"github.com/KNICEX/market-sentinel/ioc"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// 敏感配置只从环境变量读取, 需要显式绑定才能被 UnmarshalKey 看到
var secretKeys = []string{
	"cex.binance.api_key",
	"cex.binance.api_secret",
	"telegram.bot_token",
	"telegram.chat_id",
	"llm.gemini.api_key",
}

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.dev.yaml", "specify config file")
	pflag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Errorf("load .env: %w", err))
	}

	viper.SetConfigFile(*file)
	viper.SetEnvPrefix("SENTINEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range secretKeys {
		if err := viper.BindEnv(key); err != nil {
			panic(err)
		}
	}

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s \n", err))
	}
}

func main() {
	initViper()
	ioc.InitLogger()

	db := ioc.InitDB()
	bian := ioc.InitBinanceCli()
	symbolSvc := binance.NewSymbolService(bian)
	marketSvc := binance.NewMarketService(bian)

	var sink notification.Sink = notification.ConsoleSink{}
	tg := ioc.InitTelegram()
	if tg != nil {
		sink = tg
	}

	engine := ioc.InitMonitorEngine(db, marketSvc, symbolSvc, sink, ioc.InitGeminiService())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tg != nil {
		tg.ListenForCommands(ctx, command.NewHandler(engine).Handle)
	}

	slog.Info("market sentinel started")
	schedule.Every(ctx, engine.Interval, monitor.NewAlertMonitorTask(engine))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		slog.Error("save monitor state failed", "error", err)
	}
	slog.Info("market sentinel stopped")
}
