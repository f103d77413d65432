package monitor

import (
	"testing"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classifyAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func kinds(events []AlertEvent) []AlertKind {
	return lo.Map(events, func(e AlertEvent, _ int) AlertKind { return e.Kind })
}

func warmBaseline(avgVolume, low, high float64) Baseline {
	return Baseline{
		Volume: VolumeBaseline{Symbol: "DOGEUSDT", RollingAverage: avgVolume, SampleCount: 10},
		Price:  PriceRangeBaseline{Symbol: "DOGEUSDT", RecentHigh: high, RecentLow: low},
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultThresholdConfig()
	base := warmBaseline(10_000_000, 0.10, 0.20)

	testCases := []struct {
		name string
		snap exchange.TickerStats
		warm bool
		want []AlertKind
	}{
		{
			name: "pump at inclusive bounds",
			snap: snapshot("DOGEUSDT", 15, 0.15, 100_000),
			warm: true,
			want: []AlertKind{KindPump},
		},
		{
			name: "pump just below threshold",
			snap: snapshot("DOGEUSDT", 14, 0.15, 100_000),
			warm: true,
		},
		{
			name: "dump at threshold",
			snap: snapshot("DOGEUSDT", -15, 0.15, 200_000),
			warm: true,
			want: []AlertKind{KindDump},
		},
		{
			name: "volume filter blocks everything",
			snap: snapshot("DOGEUSDT", 90, 5, 99_999),
			warm: true,
		},
		{
			name: "volume spike",
			snap: snapshot("DOGEUSDT", 2, 0.15, 50_000_000),
			warm: true,
			want: []AlertKind{KindVolumeSpike},
		},
		{
			name: "breakout up",
			snap: snapshot("DOGEUSDT", 2, 0.21, 1_000_000),
			warm: true,
			want: []AlertKind{KindBreakout},
		},
		{
			name: "breakout down",
			snap: snapshot("DOGEUSDT", -2, 0.09, 1_000_000),
			warm: true,
			want: []AlertKind{KindBreakout},
		},
		{
			name: "price on the band edge is not a breakout",
			snap: snapshot("DOGEUSDT", 2, 0.20, 1_000_000),
			warm: true,
		},
		{
			name: "all kinds at once",
			snap: snapshot("DOGEUSDT", 40, 0.30, 80_000_000),
			warm: true,
			want: []AlertKind{KindPump, KindVolumeSpike, KindBreakout},
		},
		{
			name: "cold baseline only price change kinds",
			snap: snapshot("DOGEUSDT", 40, 0.30, 80_000_000),
			warm: false,
			want: []AlertKind{KindPump},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			events := Classify(tc.snap, base, tc.warm, cfg, classifyAt)
			if len(tc.want) == 0 {
				assert.Empty(t, events)
				return
			}
			assert.Equal(t, tc.want, kinds(events))
			for _, e := range events {
				assert.Equal(t, "DOGEUSDT", e.Symbol)
				assert.Equal(t, classifyAt, e.FiredAt)
			}
		})
	}
}

func TestClassify_Magnitudes(t *testing.T) {
	cfg := DefaultThresholdConfig()
	base := warmBaseline(10_000_000, 0.10, 0.20)

	events := Classify(snapshot("DOGEUSDT", 40, 0.25, 60_000_000), base, true, cfg, classifyAt)
	byKind := lo.KeyBy(events, func(e AlertEvent) AlertKind { return e.Kind })

	require.Contains(t, byKind, KindPump)
	assert.Equal(t, 40.0, byKind[KindPump].Magnitude)
	assert.Equal(t, DirectionUp, byKind[KindPump].Direction)
	require.Contains(t, byKind, KindVolumeSpike)
	assert.InDelta(t, 6.0, byKind[KindVolumeSpike].Magnitude, 1e-9)
	require.Contains(t, byKind, KindBreakout)
	assert.InDelta(t, 0.05, byKind[KindBreakout].Magnitude, 1e-9)

	down := Classify(snapshot("DOGEUSDT", -30, 0.07, 1_000_000), base, true, cfg, classifyAt)
	byKind = lo.KeyBy(down, func(e AlertEvent) AlertKind { return e.Kind })
	assert.Equal(t, DirectionDown, byKind[KindDump].Direction)
	assert.Equal(t, DirectionDown, byKind[KindBreakout].Direction)
	assert.InDelta(t, -0.03, byKind[KindBreakout].Magnitude, 1e-9)
}

func TestClassify_ZeroBaselineNoSpike(t *testing.T) {
	cfg := DefaultThresholdConfig()
	cfg.MinVolumeUSDT = 0
	base := warmBaseline(0, 1, 1)

	events := Classify(snapshot("DOGEUSDT", 0, 1, 1e12), base, true, cfg, classifyAt)
	assert.Empty(t, events)
}

func TestClassify_BreakoutMargin(t *testing.T) {
	cfg := DefaultThresholdConfig()
	cfg.BreakoutMarginPercent = 10 // 区间 0.10..0.20, margin 0.01
	base := warmBaseline(10_000_000, 0.10, 0.20)

	assert.Empty(t, Classify(snapshot("DOGEUSDT", 0, 0.205, 1_000_000), base, true, cfg, classifyAt))
	assert.Equal(t, []AlertKind{KindBreakout},
		kinds(Classify(snapshot("DOGEUSDT", 0, 0.215, 1_000_000), base, true, cfg, classifyAt)))
	assert.Empty(t, Classify(snapshot("DOGEUSDT", 0, 0.095, 1_000_000), base, true, cfg, classifyAt))
}

func TestClassify_Deterministic(t *testing.T) {
	cfg := DefaultThresholdConfig()
	base := warmBaseline(10_000_000, 0.10, 0.20)
	snap := snapshot("DOGEUSDT", 40, 0.30, 80_000_000)

	first := Classify(snap, base, true, cfg, classifyAt)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(snap, base, true, cfg, classifyAt))
	}
}
