package entity

import "time"

// ThresholdSingletonId 阈值配置只有一行
const ThresholdSingletonId = 1

// Threshold 告警阈值配置
type Threshold struct {
	Id                    int64 `gorm:"primaryKey"`
	PumpPercent           float64
	DumpPercent           float64
	VolumeMultiplier      float64
	MinVolumeUSDT         float64
	BreakoutMarginPercent float64
	CooldownMillis        int64
	IntervalMillis        int64
	UpdatedAt             time.Time
}
