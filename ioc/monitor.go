package ioc

import (
	"context"
	"log/slog"
	"time"

	"github.com/KNICEX/market-sentinel/internal/repo"
	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/KNICEX/market-sentinel/internal/service/llm"
	"github.com/KNICEX/market-sentinel/internal/service/monitor"
	"github.com/KNICEX/market-sentinel/internal/service/notification"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// InitMonitorEngine wires the alerting engine from the monitor.* keys. llmSvc may be nil.
func InitMonitorEngine(db *gorm.DB, market exchange.MarketService, symbolSvc exchange.SymbolService,
	sink notification.Sink, llmSvc llm.Service) *monitor.Engine {
	type Config struct {
		Symbols          []string                `mapstructure:"symbols"`
		MaxSymbols       int                     `mapstructure:"max_symbols"`
		FetchConcurrency int                     `mapstructure:"fetch_concurrency"`
		FetchTimeout     time.Duration           `mapstructure:"fetch_timeout"`
		Window           int                     `mapstructure:"window"`
		Warmup           int                     `mapstructure:"warmup"`
		CheckpointEvery  int                     `mapstructure:"checkpoint_every"`
		DispatchAttempts int                     `mapstructure:"dispatch_attempts"`
		RetryMin         time.Duration           `mapstructure:"retry_min"`
		RetryMax         time.Duration           `mapstructure:"retry_max"`
		Thresholds       monitor.ThresholdConfig `mapstructure:"thresholds"`
	}

	cfg := Config{
		MaxSymbols:       50,
		FetchConcurrency: monitor.DefaultFetchConcurrency,
		FetchTimeout:     monitor.DefaultFetchTimeout,
		Window:           monitor.DefaultBaselineWindow,
		Warmup:           1,
		CheckpointEvery:  monitor.DefaultCheckpointEvery,
		DispatchAttempts: monitor.DefaultDispatchAttempts,
		RetryMin:         monitor.DefaultRetryMin,
		RetryMax:         monitor.DefaultRetryMax,
		Thresholds:       monitor.DefaultThresholdConfig(),
	}
	if err := viper.UnmarshalKey("monitor", &cfg); err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	symbols := resolveSymbols(ctx, symbolSvc, cfg.Symbols)
	if len(cfg.Symbols) == 0 {
		symbols = defaultUniverse(ctx, symbolSvc, cfg.MaxSymbols)
	}

	thresholds, err := monitor.NewThresholdStore(cfg.Thresholds, monitor.WithThresholdRepo(repo.NewThresholdRepo(db)))
	if err != nil {
		panic(err)
	}

	dispatcherOpts := []monitor.DispatcherOption{
		monitor.WithDispatchAttempts(cfg.DispatchAttempts),
		monitor.WithRetryBackoff(cfg.RetryMin, cfg.RetryMax),
	}
	if llmSvc != nil {
		dispatcherOpts = append(dispatcherOpts, monitor.WithAnnotator(monitor.NewLLMAnnotator(llmSvc), 0))
	}

	engine := monitor.NewEngine(
		thresholds,
		monitor.NewUniverse(symbols, monitor.WithSymbolRepo(repo.NewSymbolRepo(db))),
		monitor.NewPoller(market, monitor.WithFetchConcurrency(cfg.FetchConcurrency), monitor.WithFetchTimeout(cfg.FetchTimeout)),
		monitor.NewBaselineEstimator(cfg.Window, cfg.Warmup),
		monitor.NewCooldownTracker(monitor.WithCooldownRepo(repo.NewCooldownRepo(db))),
		monitor.NewDispatcher(sink, dispatcherOpts...),
		monitor.WithSymbolService(symbolSvc),
		monitor.WithBaselineRepo(repo.NewBaselineRepo(db), cfg.CheckpointEvery),
	)
	if err := engine.Restore(ctx); err != nil {
		// 持久化状态损坏不影响启动, 从配置重新开始
		slog.Warn("restore monitor state failed", "error", err)
	}
	slog.Info("monitor engine ready", "symbols", len(engine.Universe().Members()),
		"interval", engine.Interval(), "window", cfg.Window)
	return engine
}

// defaultUniverse takes the first n USDT pairs listed by the exchange.
func defaultUniverse(ctx context.Context, symbolSvc exchange.SymbolService, n int) []string {
	pairs, err := symbolSvc.GetAllSymbols(ctx)
	if err != nil {
		panic(err)
	}
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return lo.Map(pairs, func(p exchange.TradingPair, _ int) string { return p.ToString() })
}

// resolveSymbols maps configured names to listed exchange symbols. Unlisted names
// are dropped; when the exchange cannot be reached the name is kept as configured.
func resolveSymbols(ctx context.Context, symbolSvc exchange.SymbolService, raw []string) []string {
	return lo.FilterMap(raw, func(s string, _ int) (string, bool) {
		symbol, ok, err := exchange.ResolveSymbol(ctx, symbolSvc, s, "USDT")
		if err != nil {
			slog.Warn("resolve configured symbol failed", "symbol", s, "error", err)
			return s, true
		}
		if !ok {
			slog.Warn("configured symbol not listed, skip", "symbol", s, "tried", symbol)
		}
		return symbol, ok
	})
}
