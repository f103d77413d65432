package entity

import "time"

// Baseline is a checkpoint of one symbol's rolling windows.
// Volumes and Prices hold JSON arrays ordered oldest first.
type Baseline struct {
	Symbol    string `gorm:"primaryKey"`
	Volumes   string
	Prices    string
	UpdatedAt time.Time
}
