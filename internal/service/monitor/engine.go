package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KNICEX/market-sentinel/internal/repo"
	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultCheckpointEvery = 10

// TickReport 一个 tick 的处理结果
type TickReport struct {
	Skipped    bool
	Polled     int
	Failures   []*DataSourceError
	Candidates []AlertEvent
	// Accepted 通过冷却检查并交给 Dispatcher 的告警
	Accepted           []AlertEvent
	Delivered          int
	SuppressedCooldown int
	SuppressedDisabled int
}

// Engine 监控循环持有的全部状态. 命令处理通过 Engine 访问, 不存在全局变量.
type Engine struct {
	thresholds *ThresholdStore
	universe   *Universe
	poller     *Poller
	baselines  *BaselineEstimator
	cooldowns  *CooldownTracker
	dispatcher *Dispatcher
	stats      *Stats

	clock           func() time.Time
	symbols         exchange.SymbolService
	baselineRepo    repo.BaselineRepo
	checkpointEvery int

	// tickMu 保证 tick 串行
	tickMu      sync.Mutex
	ticks       int
	failing     bool
	failedTicks int
}

type EngineOption func(e *Engine)

func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithSymbolService validates symbols added at runtime against the exchange.
func WithSymbolService(svc exchange.SymbolService) EngineOption {
	return func(e *Engine) {
		e.symbols = svc
	}
}

// WithBaselineRepo checkpoints baseline windows every n ticks and at shutdown.
func WithBaselineRepo(r repo.BaselineRepo, every int) EngineOption {
	return func(e *Engine) {
		e.baselineRepo = r
		if every > 0 {
			e.checkpointEvery = every
		}
	}
}

func NewEngine(thresholds *ThresholdStore, universe *Universe, poller *Poller, baselines *BaselineEstimator,
	cooldowns *CooldownTracker, dispatcher *Dispatcher, opts ...EngineOption) *Engine {
	e := &Engine{
		thresholds:      thresholds,
		universe:        universe,
		poller:          poller,
		baselines:       baselines,
		cooldowns:       cooldowns,
		dispatcher:      dispatcher,
		clock:           time.Now,
		checkpointEvery: DefaultCheckpointEvery,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stats = NewStats(e.clock())
	return e
}

func (e *Engine) Thresholds() *ThresholdStore {
	return e.thresholds
}

func (e *Engine) Universe() *Universe {
	return e.universe
}

func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}

// Interval is re-read by the loop at every tick boundary.
func (e *Engine) Interval() time.Duration {
	return e.thresholds.Snapshot().Interval
}

// Tick runs one poll, classify, filter, dispatch pass. Ticks never overlap.
func (e *Engine) Tick(ctx context.Context) (TickReport, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if !e.universe.IsEnabled() {
		return TickReport{Skipped: true}, nil
	}

	// 整个 tick 只读一次配置, tick 中途的修改从下一个 tick 开始生效
	cfg := e.thresholds.Snapshot()
	symbols := e.universe.Members()

	polled, err := e.poller.Poll(ctx, symbols)
	if err != nil {
		return TickReport{}, fmt.Errorf("poll: %w", err)
	}
	now := e.clock()
	report := TickReport{Polled: len(polled.Snapshots), Failures: polled.Failures}

	for _, snap := range polled.Snapshots {
		// tick 期间被移除的交易对不再告警
		if !e.universe.Contains(snap.Symbol) {
			continue
		}
		// 基线未预热时只判断涨跌幅
		base, err := e.baselines.Observe(snap)
		warm := err == nil
		if !warm {
			slog.Debug("baseline not ready", "symbol", snap.Symbol, "samples", base.Volume.SampleCount, "error", err)
		}
		report.Candidates = append(report.Candidates, Classify(snap, base, warm, cfg, now)...)
	}

	dispatchEnabled := e.universe.DispatchEnabled()
	for _, ev := range report.Candidates {
		// disable alerts 只屏蔽发送, 不写冷却记录
		if !dispatchEnabled {
			report.SuppressedDisabled++
			continue
		}
		if !e.cooldowns.TryAcquire(ctx, ev.Symbol, ev.Kind, now, cfg.Cooldown) {
			report.SuppressedCooldown++
			continue
		}
		ev.ID = uuid.NewString()
		report.Accepted = append(report.Accepted, ev)
		slog.Info("alert fired", "id", ev.ID, "symbol", ev.Symbol, "kind", ev.Kind, "magnitude", ev.Magnitude)
	}

	report.Delivered = e.dispatcher.DispatchAll(ctx, report.Accepted)

	e.stats.record(tickCounts{
		fetchFailures:      len(report.Failures),
		fired:              report.Accepted,
		suppressedCooldown: report.SuppressedCooldown,
		suppressedDisabled: report.SuppressedDisabled,
		dispatchFailures:   len(report.Accepted) - report.Delivered,
	})
	e.checkHealth(ctx, len(symbols), report)

	e.ticks++
	if e.baselineRepo != nil && e.ticks%e.checkpointEvery == 0 {
		if err := e.Checkpoint(ctx); err != nil {
			slog.Warn("checkpoint baselines failed", "error", err)
		}
	}
	return report, nil
}

// checkHealth 整个 tick 全部拉取失败时发送一次错误通知, 恢复后发送一次恢复通知
func (e *Engine) checkHealth(ctx context.Context, total int, report TickReport) {
	failed := total > 0 && report.Polled == 0
	switch {
	case failed:
		e.failedTicks++
		if e.failing {
			return
		}
		e.failing = true
		msg := fmt.Sprintf("⚠️ Monitoring error: all %d fetches failed", total)
		if len(report.Failures) > 0 {
			msg += "\n" + report.Failures[0].Error()
		}
		if err := e.dispatcher.Notify(ctx, msg); err != nil {
			slog.Warn("send error notice failed", "error", err)
		}
	case e.failing:
		msg := fmt.Sprintf("✅ Monitoring recovered after %d failed tick(s)", e.failedTicks)
		e.failing = false
		e.failedTicks = 0
		if err := e.dispatcher.Notify(ctx, msg); err != nil {
			slog.Warn("send recovery notice failed", "error", err)
		}
	}
}

// AddSymbol resolves raw against the exchange and adds it. Without a symbol
// service a bare base asset is quoted in USDT.
func (e *Engine) AddSymbol(ctx context.Context, raw string) (string, bool, error) {
	candidates, err := exchange.SymbolCandidates(raw, "USDT")
	if err != nil {
		return "", false, &ValidationError{Field: "symbol", Value: raw, Reason: err.Error()}
	}
	if member, ok := e.firstMember(candidates); ok {
		return member, false, nil
	}
	symbol := candidates[0]
	if e.symbols != nil {
		resolved, ok, err := exchange.ResolveSymbol(ctx, e.symbols, raw, "USDT")
		if err != nil {
			return resolved, false, err
		}
		if !ok {
			return resolved, false, &ValidationError{Field: "symbol", Value: resolved, Reason: "not listed on the exchange"}
		}
		symbol = resolved
	}
	added, err := e.universe.Add(ctx, symbol)
	return symbol, added, err
}

// RemoveSymbol drops the symbol and its baseline windows.
func (e *Engine) RemoveSymbol(ctx context.Context, raw string) (string, bool, error) {
	candidates, err := exchange.SymbolCandidates(raw, "USDT")
	if err != nil {
		return "", false, &ValidationError{Field: "symbol", Value: raw, Reason: err.Error()}
	}
	symbol, ok := e.firstMember(candidates)
	if !ok {
		return candidates[0], false, nil
	}
	removed, err := e.universe.Remove(ctx, symbol)
	if err != nil {
		return symbol, false, err
	}
	if removed {
		e.baselines.Forget(symbol)
	}
	return symbol, removed, nil
}

func (e *Engine) firstMember(candidates []string) (string, bool) {
	return lo.Find(candidates, e.universe.Contains)
}

// Restore loads persisted thresholds, membership, cooldowns and baselines.
// Each part is independent; failures are joined.
func (e *Engine) Restore(ctx context.Context) error {
	var errs []error
	errs = append(errs, e.thresholds.Load(ctx), e.universe.Load(ctx), e.cooldowns.Load(ctx))
	if e.baselineRepo != nil {
		rows, err := e.baselineRepo.FindAll(ctx)
		if err == nil {
			err = e.baselines.Restore(rows)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (e *Engine) Checkpoint(ctx context.Context) error {
	if e.baselineRepo == nil {
		return nil
	}
	rows, err := e.baselines.Export()
	if err != nil {
		return err
	}
	return e.baselineRepo.SaveAll(ctx, rows)
}

// Shutdown waits for a running tick and writes a final checkpoint.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.Checkpoint(ctx)
}
