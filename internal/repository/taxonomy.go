package repository

import (
	"context"
	"errors"

	"github.com/capy-market/capybara-backend/internal/model"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("分类不存在")
	ErrCountryNotFound  = errors.New("国家不存在")
	ErrCityNotFound     = errors.New("城市不存在")
	ErrCurrencyNotFound = errors.New("货币不存在")
)

// TaxonomyRepository 分类/国家/城市/货币等基础数据访问
type TaxonomyRepository interface {
	ListCategories(ctx context.Context) ([]*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	ListCountries(ctx context.Context) ([]*model.Country, error)
	GetCountry(ctx context.Context, id string) (*model.Country, error)
	ListCities(ctx context.Context, countryID string) ([]*model.City, error)
	GetCity(ctx context.Context, id string) (*model.City, error)

	ListCurrencies(ctx context.Context) ([]*model.Currency, error)
	GetCurrency(ctx context.Context, id string) (*model.Currency, error)
}

type taxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&categories).Error
	return categories, err
}

func (r *taxonomyRepository) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *taxonomyRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	category.Slugify()
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *taxonomyRepository) ListCountries(ctx context.Context) ([]*model.Country, error) {
	var countries []*model.Country
	err := r.db.WithContext(ctx).Preload("Currencies").Order("name ASC").Find(&countries).Error
	return countries, err
}

func (r *taxonomyRepository) GetCountry(ctx context.Context, id string) (*model.Country, error) {
	var country model.Country
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&country).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCountryNotFound
		}
		return nil, err
	}
	return &country, nil
}

func (r *taxonomyRepository) ListCities(ctx context.Context, countryID string) ([]*model.City, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if countryID != "" {
		query = query.Where("country_id = ?", countryID)
	}
	var cities []*model.City
	err := query.Find(&cities).Error
	return cities, err
}

func (r *taxonomyRepository) GetCity(ctx context.Context, id string) (*model.City, error) {
	var city model.City
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&city).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return &city, nil
}

func (r *taxonomyRepository) ListCurrencies(ctx context.Context) ([]*model.Currency, error) {
	var currencies []*model.Currency
	err := r.db.WithContext(ctx).Order("sort_order ASC, code ASC").Find(&currencies).Error
	return currencies, err
}

func (r *taxonomyRepository) GetCurrency(ctx context.Context, id string) (*model.Currency, error) {
	var currency model.Currency
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&currency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCurrencyNotFound
		}
		return nil, err
	}
	return &currency, nil
}
