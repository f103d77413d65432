package repo

import (
	"context"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BaselineRepo interface {
	SaveAll(ctx context.Context, baselines []entity.Baseline) error
	FindAll(ctx context.Context) ([]entity.Baseline, error)
}

type baselineRepo struct {
	db *gorm.DB
}

func NewBaselineRepo(db *gorm.DB) BaselineRepo {
	return &baselineRepo{
		db: db,
	}
}

func (r *baselineRepo) SaveAll(ctx context.Context, baselines []entity.Baseline) error {
	if len(baselines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(&baselines, 100).Error
}

func (r *baselineRepo) FindAll(ctx context.Context) ([]entity.Baseline, error) {
	var baselines []entity.Baseline
	err := r.db.WithContext(ctx).Find(&baselines).Error
	if err != nil {
		return nil, err
	}
	return baselines, nil
}
