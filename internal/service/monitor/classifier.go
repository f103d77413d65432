package monitor

import (
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
)

// Classify evaluates every alert kind independently and returns the candidates in
// AllKinds order. warm reports whether base holds enough prior samples for the
// volume spike and breakout rules. Pure function: same input, same output.
func Classify(snap exchange.TickerStats, base Baseline, warm bool, cfg ThresholdConfig, now time.Time) []AlertEvent {
	// 成交额不足时任何类型都不触发
	if snap.QuoteVolume < cfg.MinVolumeUSDT {
		return nil
	}

	var events []AlertEvent
	newEvent := func(kind AlertKind, magnitude float64, dir Direction) AlertEvent {
		return AlertEvent{
			Symbol:    snap.Symbol,
			Kind:      kind,
			Magnitude: magnitude,
			Direction: dir,
			Snapshot:  snap,
			Baseline:  base,
			FiredAt:   now,
		}
	}

	if snap.PriceChangePercent >= cfg.PumpPercent {
		events = append(events, newEvent(KindPump, snap.PriceChangePercent, DirectionUp))
	}
	if snap.PriceChangePercent <= cfg.DumpPercent {
		events = append(events, newEvent(KindDump, snap.PriceChangePercent, DirectionDown))
	}

	if !warm {
		return events
	}

	if avg := base.Volume.RollingAverage; avg > 0 {
		ratio := snap.QuoteVolume / avg
		if ratio >= cfg.VolumeSpikeMultiplier {
			dir := DirectionUp
			if snap.PriceChangePercent < 0 {
				dir = DirectionDown
			}
			events = append(events, newEvent(KindVolumeSpike, ratio, dir))
		}
	}

	if base.Volume.SampleCount > 0 {
		high, low := base.Price.RecentHigh, base.Price.RecentLow
		margin := (high - low) * cfg.BreakoutMarginPercent / 100
		switch {
		case snap.LastPrice > high+margin:
			events = append(events, newEvent(KindBreakout, snap.LastPrice-high, DirectionUp))
		case snap.LastPrice < low-margin:
			events = append(events, newEvent(KindBreakout, snap.LastPrice-low, DirectionDown))
		}
	}
	return events
}
