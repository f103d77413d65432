package monitor

import (
	"context"
	"log/slog"

	"github.com/KNICEX/market-sentinel/internal/schedule"
)

type AlertMonitorTask struct {
	engine *Engine
}

func NewAlertMonitorTask(engine *Engine) schedule.Task {
	return &AlertMonitorTask{engine: engine}
}

func (t *AlertMonitorTask) Run(ctx context.Context) error {
	report, err := t.engine.Tick(ctx)
	if err != nil {
		return err
	}
	if report.Skipped {
		slog.Debug("monitoring stopped, tick skipped")
		return nil
	}
	slog.Info("tick done", "polled", report.Polled, "failed", len(report.Failures),
		"candidates", len(report.Candidates), "accepted", len(report.Accepted), "delivered", report.Delivered,
		"cooldown", report.SuppressedCooldown, "muted", report.SuppressedDisabled)
	return nil
}

func (t *AlertMonitorTask) Name() string {
	return "market alert monitor task"
}
