package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/monitor"
	"github.com/dustin/go-humanize"
)

const helpText = `Commands:
start alerts / stop alerts - start or stop monitoring
enable alerts / disable alerts - send or mute notifications (monitoring continues)
pump <n> - pump threshold in %, n > 0
dump <n> - dump threshold in %, n < 0
volume <n> - volume spike multiplier, n >= 1
minvol <n> - minimum 24h volume in USDT, n >= 0
cooldown <minutes> - per symbol and kind alert cooldown
interval <seconds> - polling interval, at least 1
add <symbol> / remove <symbol> - e.g. add doge
symbols - list monitored symbols
settings - show current settings
alert stats - alert statistics`

// Handler 把命令转换成对 Engine 的调用, 返回给用户的回复文本
type Handler struct {
	engine *monitor.Engine
}

func NewHandler(engine *monitor.Engine) *Handler {
	return &Handler{engine: engine}
}

// Handle parses and executes text. It always returns a reply; rejected
// commands leave every setting unchanged.
func (h *Handler) Handle(ctx context.Context, text string) string {
	cmd, err := Parse(text)
	if err != nil {
		if errors.Is(err, ErrEmpty) || errors.Is(err, ErrUnknown) {
			return fmt.Sprintf("❓ %v\nSend \"help\" for the command list.", err)
		}
		return "❌ " + err.Error()
	}

	reply, err := h.Execute(ctx, cmd)
	if err != nil {
		if !errors.Is(err, monitor.ErrValidation) {
			slog.Error("command failed", "verb", cmd.Verb, "error", err)
		}
		return "❌ " + err.Error()
	}
	slog.Info("command executed", "verb", cmd.Verb, "number", cmd.Number, "symbol", cmd.Symbol)
	return reply
}

func (h *Handler) Execute(ctx context.Context, cmd Command) (string, error) {
	universe := h.engine.Universe()
	thresholds := h.engine.Thresholds()

	switch cmd.Verb {
	case VerbStartAlerts:
		universe.Start()
		return "▶️ Monitoring started", nil
	case VerbStopAlerts:
		universe.Stop()
		return "⏹ Monitoring stopped", nil
	case VerbEnableAlerts:
		universe.EnableDispatch()
		return "🔔 Alerts enabled", nil
	case VerbDisableAlerts:
		universe.DisableDispatch()
		return "🔕 Alerts disabled (monitoring continues)", nil
	case VerbPump:
		cfg, err := thresholds.SetPumpPercent(ctx, cmd.Number)
		return fmt.Sprintf("✅ Pump threshold set to +%g%%", cfg.PumpPercent), err
	case VerbDump:
		cfg, err := thresholds.SetDumpPercent(ctx, cmd.Number)
		return fmt.Sprintf("✅ Dump threshold set to %g%%", cfg.DumpPercent), err
	case VerbVolume:
		cfg, err := thresholds.SetVolumeSpikeMultiplier(ctx, cmd.Number)
		return fmt.Sprintf("✅ Volume spike multiplier set to %gx", cfg.VolumeSpikeMultiplier), err
	case VerbMinVolume:
		cfg, err := thresholds.SetMinVolumeUSDT(ctx, cmd.Number)
		return fmt.Sprintf("✅ Minimum volume set to %s USDT", humanize.CommafWithDigits(cfg.MinVolumeUSDT, 2)), err
	case VerbCooldown:
		d, err := toDuration("cooldown", cmd.Number, time.Minute)
		if err != nil {
			return "", err
		}
		cfg, err := thresholds.SetCooldown(ctx, d)
		return fmt.Sprintf("✅ Cooldown set to %s", cfg.Cooldown), err
	case VerbInterval:
		d, err := toDuration("interval", cmd.Number, time.Second)
		if err != nil {
			return "", err
		}
		cfg, err := thresholds.SetInterval(ctx, d)
		return fmt.Sprintf("✅ Interval set to %s, applies from the next tick", cfg.Interval), err
	case VerbAdd:
		symbol, added, err := h.engine.AddSymbol(ctx, cmd.Symbol)
		if err != nil {
			return "", err
		}
		if !added {
			return fmt.Sprintf("ℹ️ %s is already monitored", symbol), nil
		}
		return fmt.Sprintf("➕ %s added", symbol), nil
	case VerbRemove:
		symbol, removed, err := h.engine.RemoveSymbol(ctx, cmd.Symbol)
		if err != nil {
			return "", err
		}
		if !removed {
			return fmt.Sprintf("ℹ️ %s is not monitored", symbol), nil
		}
		return fmt.Sprintf("➖ %s removed", symbol), nil
	case VerbSymbols:
		members := universe.Members()
		if len(members) == 0 {
			return "No symbols monitored", nil
		}
		return fmt.Sprintf("👀 %d symbols: %s", len(members), strings.Join(members, ", ")), nil
	case VerbSettings:
		return h.settings(), nil
	case VerbStats:
		return h.engine.Stats().String(), nil
	case VerbHelp:
		return helpText, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknown, cmd.Verb)
}

// toDuration converts n units, rejecting values that do not fit in a time.Duration.
func toDuration(field string, n float64, unit time.Duration) (time.Duration, error) {
	if n < 0 {
		return 0, &monitor.ValidationError{Field: field, Value: n, Reason: "must not be negative"}
	}
	if n*float64(unit) >= math.MaxInt64 {
		return 0, &monitor.ValidationError{Field: field, Value: n, Reason: "too large"}
	}
	return time.Duration(n * float64(unit)), nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (h *Handler) settings() string {
	cfg := h.engine.Thresholds().Snapshot()
	universe := h.engine.Universe()
	var b strings.Builder
	b.WriteString("⚙️ Settings\n")
	fmt.Fprintf(&b, "Monitoring: %s, alerts: %s\n", onOff(universe.IsEnabled()), onOff(universe.DispatchEnabled()))
	fmt.Fprintf(&b, "Pump: +%g%%, dump: %g%%\n", cfg.PumpPercent, cfg.DumpPercent)
	fmt.Fprintf(&b, "Volume spike: %gx\n", cfg.VolumeSpikeMultiplier)
	fmt.Fprintf(&b, "Min volume: %s USDT\n", humanize.CommafWithDigits(cfg.MinVolumeUSDT, 2))
	fmt.Fprintf(&b, "Breakout margin: %g%%\n", cfg.BreakoutMarginPercent)
	fmt.Fprintf(&b, "Cooldown: %s, interval: %s\n", cfg.Cooldown, cfg.Interval)
	fmt.Fprintf(&b, "Symbols: %d", len(universe.Members()))
	return b.String()
}
