package entity

import "time"

// Cooldown 最近一次告警时间, 按 (symbol, kind) 唯一
type Cooldown struct {
	Symbol      string    `gorm:"primaryKey"`
	Kind        string    `gorm:"primaryKey"`
	LastFiredAt time.Time `gorm:"index"`
	UpdatedAt   time.Time
}
