package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ThresholdRepo interface {
	Save(ctx context.Context, threshold entity.Threshold) error
	// Find returns found=false when nothing has been saved yet.
	Find(ctx context.Context) (threshold entity.Threshold, found bool, err error)
}

type thresholdRepo struct {
	db *gorm.DB
}

func NewThresholdRepo(db *gorm.DB) ThresholdRepo {
	return &thresholdRepo{
		db: db,
	}
}

func (r *thresholdRepo) Save(ctx context.Context, threshold entity.Threshold) error {
	threshold.Id = entity.ThresholdSingletonId
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&threshold).Error
}

func (r *thresholdRepo) Find(ctx context.Context) (entity.Threshold, bool, error) {
	var threshold entity.Threshold
	err := r.db.WithContext(ctx).Where("id = ?", entity.ThresholdSingletonId).First(&threshold).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Threshold{}, false, nil
	}
	if err != nil {
		return entity.Threshold{}, false, err
	}
	return threshold, true, nil
}
