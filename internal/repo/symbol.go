package repo

import (
	"context"

	"github.com/KNICEX/market-sentinel/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SymbolRepo interface {
	// Mark upserts the symbol and sets its mark.
	Mark(ctx context.Context, base, quote, mark string) error
	FindByMark(ctx context.Context, mark string) ([]entity.Symbol, error)
	FindByBaseAndQuote(ctx context.Context, base, quote string) (entity.Symbol, error)
}

type symbolRepo struct {
	db *gorm.DB
}

func NewSymbolRepo(db *gorm.DB) SymbolRepo {
	return &symbolRepo{
		db: db,
	}
}

func (repo *symbolRepo) Mark(ctx context.Context, base, quote, mark string) error {
	symbol := entity.Symbol{Base: base, Quote: quote, Mark: mark}
	return repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base"}, {Name: "quote"}},
		DoUpdates: clause.AssignmentColumns([]string{"mark", "updated_at"}),
	}).Create(&symbol).Error
}

func (repo *symbolRepo) FindByMark(ctx context.Context, mark string) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	err := repo.db.WithContext(ctx).Where("mark = ?", mark).Order("id").Find(&symbols).Error
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

func (repo *symbolRepo) FindByBaseAndQuote(ctx context.Context, base, quote string) (entity.Symbol, error) {
	var symbol entity.Symbol
	err := repo.db.WithContext(ctx).Where("base = ? AND quote = ?", base, quote).First(&symbol).Error
	if err != nil {
		return entity.Symbol{}, err
	}
	return symbol, nil
}
