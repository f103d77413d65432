package repo

import (
	"github.com/KNICEX/market-sentinel/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Symbol{}, &entity.Cooldown{}, &entity.Baseline{}, &entity.Threshold{})
}
