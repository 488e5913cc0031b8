package db

import (
	"context"
	"fmt"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaselineRepository keeps baselines in Postgres so they survive restarts.
type BaselineRepository struct {
	db *gorm.DB
}

func NewBaselineRepository(db *gorm.DB) *BaselineRepository {
	return &BaselineRepository{db: db}
}

func (r *BaselineRepository) Get(ctx context.Context, symbol string) (*domain.Baseline, error) {
	var model baselineModel
	if err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrBaselineNotFound
		}
		return nil, err
	}
	return mapBaselineToDomain(model)
}

func (r *BaselineRepository) Set(ctx context.Context, baseline domain.Baseline) error {
	model := baselineModel{
		Symbol:        baseline.Symbol,
		Price:         baseline.Price.String(),
		EstablishedAt: baseline.EstablishedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "established_at", "updated_at"}),
		}).
		Create(&model).Error
}

func mapBaselineToDomain(model baselineModel) (*domain.Baseline, error) {
	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, fmt.Errorf("corrupt baseline price for %s: %w", model.Symbol, err)
	}
	return &domain.Baseline{
		Symbol:        model.Symbol,
		Price:         price,
		EstablishedAt: model.EstablishedAt,
	}, nil
}
