package entity

import (
	"time"
)

// Symbol 监控交易对
type Symbol struct {
	Id        int64  `gorm:"primaryKey;autoIncrement"`
	Base      string `gorm:"uniqueIndex:symbol_idx"`
	Quote     string `gorm:"uniqueIndex:symbol_idx"`
	Mark      string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	MarkWatch  = "watch"
	MarkIgnore = "ignore"
)
