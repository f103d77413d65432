package repo

import (
	"context"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CooldownRepo interface {
	Save(ctx context.Context, cooldown entity.Cooldown) error
	FindAll(ctx context.Context) ([]entity.Cooldown, error)
}

type cooldownRepo struct {
	db *gorm.DB
}

func NewCooldownRepo(db *gorm.DB) CooldownRepo {
	return &cooldownRepo{
		db: db,
	}
}

// Save upserts the record. An older last_fired_at never overwrites a newer one.
func (r *cooldownRepo) Save(ctx context.Context, cooldown entity.Cooldown) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "kind"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_fired_at": gorm.Expr("MAX(last_fired_at, excluded.last_fired_at)"),
			"updated_at":    gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&cooldown).Error
}

func (r *cooldownRepo) FindAll(ctx context.Context) ([]entity.Cooldown, error) {
	var cooldowns []entity.Cooldown
	err := r.db.WithContext(ctx).Find(&cooldowns).Error
	if err != nil {
		return nil, err
	}
	return cooldowns, nil
}
