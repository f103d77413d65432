package monitor

import (
	"context"
	"time"

	"github.com/KNICEX/market-sentinel/internal/service/exchange"
)

type AlertKind string

const (
	KindPump        AlertKind = "pump"
	KindDump        AlertKind = "dump"
	KindVolumeSpike AlertKind = "volume_spike"
	KindBreakout    AlertKind = "breakout"
)

var AllKinds = []AlertKind{KindPump, KindDump, KindVolumeSpike, KindBreakout}

func (k AlertKind) String() string {
	return string(k)
}

func (k AlertKind) Valid() bool {
	switch k {
	case KindPump, KindDump, KindVolumeSpike, KindBreakout:
		return true
	}
	return false
}

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// AlertEvent 一次告警. Magnitude 的含义随 Kind 变化:
// pump/dump 为 24h 涨跌幅(%), volume_spike 为成交额/均值倍数, breakout 为突破价差.
type AlertEvent struct {
	ID        string
	Symbol    string
	Kind      AlertKind
	Magnitude float64
	Direction Direction
	Snapshot  exchange.TickerStats
	Baseline  Baseline
	FiredAt   time.Time
}

// Annotator adds a short free-text note to an alert before it is sent.
type Annotator interface {
	Annotate(ctx context.Context, event AlertEvent) (string, error)
}
