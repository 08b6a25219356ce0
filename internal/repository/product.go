package repository

import (
	"context"
	"errors"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound  = errors.New("商品不存在")
	ErrFavoriteNotFound = errors.New("收藏记录不存在")
	ErrStaleWrite       = errors.New("记录已被并发修改")
)

// ProductFilter 商品查询条件
type ProductFilter struct {
	CategoryID string
	CountryID  string
	CityID     string
	CurrencyID string
	AuthorID   string
	MinPrice   int64
	MaxPrice   int64
	Search     string // 标题/描述模糊匹配
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	// GetByID 不做可见性过滤，仅供内部流程使用
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// GetVisible 按查看者身份过滤：已发布对所有人可见，其余仅作者可见
	GetVisible(ctx context.Context, id, viewerID string) (*model.Product, error)
	// List 列表查询，始终应用可见性过滤，置顶商品排前
	List(ctx context.Context, filter *ProductFilter, viewerID string, page *Pagination) ([]*model.Product, int64, error)
	// UpdateFields 更新内容字段（不含 status），同时将状态重置为待审核
	UpdateFields(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id, authorID string) error

	// UpdateStatusIf 乐观状态写入：仅当记录仍处于待审核且 updated_at
	// 与送审时一致才生效，返回是否写入成功
	UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error)
	// ArchiveStale 批量归档：已发布且 updated_at 早于截止时间的记录
	ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error)
	// ListPending 审核停留在待审核状态的记录（审核服务故障的恢复路径）
	ListPending(ctx context.Context, limit int) ([]*model.Product, error)

	SetPremium(ctx context.Context, id string, premium bool) error

	// 收藏
	AddFavorite(ctx context.Context, userID, productID string) (bool, error)
	RemoveFavorite(ctx context.Context, userID, productID string) (bool, error)
	CountFavorites(ctx context.Context, productID string) (int64, error)
	ListFavorites(ctx context.Context, userID string, page *Pagination) ([]*model.Product, int64, error)

	// 浏览
	RecordView(ctx context.Context, userID, productID string) error
	CountViews(ctx context.Context, productID string) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	product.Status = model.Transition(product.Status, model.EventCreated)
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Country").
		Preload("City").Preload("Currency").Preload("Images").
		Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetVisible(ctx context.Context, id, viewerID string) (*model.Product, error) {
	query := r.db.WithContext(ctx).
		Preload("Author").Preload("Category").Preload("Country").
		Preload("City").Preload("Currency").Preload("Images").
		Where("id = ?", id)
	query = visibleScope(query, viewerID)

	var product model.Product
	if err := query.First(&product).Error; err != nil {
		// 不可见与不存在对外不可区分
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// visibleScope 可见性过滤：status = 已发布，或查看者即作者
func visibleScope(query *gorm.DB, viewerID string) *gorm.DB {
	if viewerID == "" {
		return query.Where("status = ?", model.StatusPublished)
	}
	return query.Where("status = ? OR author_id = ?", model.StatusPublished, viewerID)
}

func (r *productRepository) List(ctx context.Context, filter *ProductFilter, viewerID string, page *Pagination) ([]*model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	query = visibleScope(query, viewerID)

	if filter != nil {
		if filter.CategoryID != "" {
			query = query.Where("category_id = ?", filter.CategoryID)
		}
		if filter.CountryID != "" {
			query = query.Where("country_id = ?", filter.CountryID)
		}
		if filter.CityID != "" {
			query = query.Where("city_id = ?", filter.CityID)
		}
		if filter.CurrencyID != "" {
			query = query.Where("currency_id = ?", filter.CurrencyID)
		}
		if filter.AuthorID != "" {
			query = query.Where("author_id = ?", filter.AuthorID)
		}
		if filter.MinPrice > 0 {
			query = query.Where("price >= ?", filter.MinPrice)
		}
		if filter.MaxPrice > 0 {
			query = query.Where("price <= ?", filter.MaxPrice)
		}
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			query = query.Where("title LIKE ? OR description LIKE ?", like, like)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset, limit := offsetLimit(page); limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var products []*model.Product
	err := query.
		Preload("Category").Preload("Country").Preload("City").
		Preload("Currency").Preload("Images").
		Order("is_premium DESC, created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) UpdateFields(ctx context.Context, product *model.Product) error {
	// 编辑后回到待审核，status 由状态机给出，不接受外部传入
	next := model.Transition(product.Status, model.EventEdited)
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND author_id = ?", product.ID, product.AuthorID).
		Updates(map[string]interface{}{
			"category_id": product.CategoryID,
			"country_id":  product.CountryID,
			"city_id":     product.CityID,
			"currency_id": product.CurrencyID,
			"title":       product.Title,
			"description": product.Description,
			"price":       product.Price,
			"status":      next,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	product.Status = next
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id, authorID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&model.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND status = ? AND updated_at = ?", id, model.StatusPending, seenUpdatedAt).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepository) ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error) {
	cutoff := now.Add(-threshold)
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("status = ? AND updated_at < ?", model.StatusPublished, cutoff).
		Updates(map[string]interface{}{
			"status":     model.StatusArchived,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *productRepository) ListPending(ctx context.Context, limit int) ([]*model.Product, error) {
	var products []*model.Product
	query := r.db.WithContext(ctx).
		Where("status = ?", model.StatusPending).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&products).Error
	return products, err
}

func (r *productRepository) SetPremium(ctx context.Context, id string, premium bool) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_premium": premium,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) AddFavorite(ctx context.Context, userID, productID string) (bool, error) {
	fav := &model.Favorite{UserID: userID, ProductID: productID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fav)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepository) RemoveFavorite(ctx context.Context, userID, productID string) (bool, error) {
	// 必须硬删除：软删除的残留行会占住 uniq_user_favorite 唯一索引，
	// 后续 AddFavorite 的 DO NOTHING 插入会被挡掉，用户无法再次收藏
	result := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepository) CountFavorites(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Favorite{}).
		Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *productRepository) ListFavorites(ctx context.Context, userID string, page *Pagination) ([]*model.Product, int64, error) {
	// 收藏列表同样经过可见性过滤：被拒绝或下架的商品不出现在他人收藏里
	query := r.db.WithContext(ctx).Model(&model.Product{}).
		Joins("JOIN favorites ON favorites.product_id = products.id").
		Where("favorites.user_id = ?", userID)
	query = visibleScope(query, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset, limit := offsetLimit(page); limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var products []*model.Product
	err := query.
		Preload("Category").Preload("Country").Preload("City").
		Preload("Currency").Preload("Images").
		Order("favorites.created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) RecordView(ctx context.Context, userID, productID string) error {
	view := &model.ProductView{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(view).Error
}

func (r *productRepository) CountViews(ctx context.Context, productID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProductView{}).
		Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
