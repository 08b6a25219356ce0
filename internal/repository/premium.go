package repository

import (
	"context"
	"errors"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound    = errors.New("套餐不存在")
	ErrPremiumNotFound = errors.New("置顶记录不存在")
)

type PremiumRepository interface {
	ListActivePlans(ctx context.Context) ([]*model.PremiumPlan, error)
	GetPlan(ctx context.Context, id string) (*model.PremiumPlan, error)
	CreatePlan(ctx context.Context, plan *model.PremiumPlan) error

	CreateProductPremium(ctx context.Context, premium *model.ProductPremium) error
	// ActiveForProduct 商品当前生效的置顶记录，无则返回 ErrPremiumNotFound
	ActiveForProduct(ctx context.Context, productID string, now time.Time) (*model.ProductPremium, error)
	// ListExpired 已过期但仍标记生效的置顶记录
	ListExpired(ctx context.Context, now time.Time) ([]*model.ProductPremium, error)
	Deactivate(ctx context.Context, id string) error
}

type premiumRepository struct {
	db *gorm.DB
}

func NewPremiumRepository(db *gorm.DB) PremiumRepository {
	return &premiumRepository{db: db}
}

func (r *premiumRepository) ListActivePlans(ctx context.Context) ([]*model.PremiumPlan, error) {
	var plans []*model.PremiumPlan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("duration_days ASC").Find(&plans).Error
	return plans, err
}

func (r *premiumRepository) GetPlan(ctx context.Context, id string) (*model.PremiumPlan, error) {
	var plan model.PremiumPlan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *premiumRepository) CreatePlan(ctx context.Context, plan *model.PremiumPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *premiumRepository) CreateProductPremium(ctx context.Context, premium *model.ProductPremium) error {
	return r.db.WithContext(ctx).Create(premium).Error
}

func (r *premiumRepository) ActiveForProduct(ctx context.Context, productID string, now time.Time) (*model.ProductPremium, error) {
	var premium model.ProductPremium
	err := r.db.WithContext(ctx).Preload("Plan").
		Where("product_id = ? AND is_active = ? AND end_date > ?", productID, true, now).
		Order("end_date DESC").First(&premium).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPremiumNotFound
		}
		return nil, err
	}
	return &premium, nil
}

func (r *premiumRepository) ListExpired(ctx context.Context, now time.Time) ([]*model.ProductPremium, error) {
	var premiums []*model.ProductPremium
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND end_date <= ?", true, now).
		Find(&premiums).Error
	return premiums, err
}

func (r *premiumRepository) Deactivate(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.ProductPremium{}).
		Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPremiumNotFound
	}
	return nil
}
