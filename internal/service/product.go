package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
)

var (
	ErrProductIDEmpty     = errors.New("商品 ID 不能为空")
	ErrTitleEmpty         = errors.New("标题不能为空")
	ErrTitleTooLong       = errors.New("标题长度不能超过 50 个字符")
	ErrDescriptionTooLong = errors.New("描述长度不能超过 550 个字符")
	ErrPriceInvalid       = errors.New("价格必须大于 0")
	ErrNotOwner           = errors.New("只有作者可以执行该操作")
)

// ProductCounts 商品的附加统计（只统计查看者可见的部分）
type ProductCounts struct {
	Views     int64 `json:"views_count"`
	Favorites int64 `json:"favorites_count"`
	Comments  int64 `json:"comments_count"`
}

type ProductService interface {
	// Create 创建商品：落库为待审核，同步送审后返回最终状态
	// 审核服务不可用时返回 ErrModerationUnavailable，商品保持待审核
	Create(ctx context.Context, product *model.Product) error
	// Update 编辑商品：内容字段更新并重置为待审核，随后重新送审
	Update(ctx context.Context, product *model.Product) error
	// Get 详情读取，应用可见性过滤；不可见与不存在不可区分
	Get(ctx context.Context, id, viewerID string) (*model.Product, error)
	List(ctx context.Context, filter *repository.ProductFilter, viewerID string, page *repository.Pagination) ([]*model.Product, int64, error)
	Delete(ctx context.Context, id, authorID string) error

	// Counts 可见口径的统计：非作者只统计已发布评论
	Counts(ctx context.Context, productID, viewerID string) (*ProductCounts, error)
	// RecordView 登录用户浏览可见商品时计一次
	RecordView(ctx context.Context, productID, viewerID string) error

	// ToggleFavorite 收藏/取消收藏，返回当前是否已收藏与收藏总数
	ToggleFavorite(ctx context.Context, productID, userID string, add bool) (bool, int64, error)
	ListFavorites(ctx context.Context, userID string, page *repository.Pagination) ([]*model.Product, int64, error)

	// RemoderatePending 重新送审停留在待审核状态的商品（故障恢复）
	RemoderatePending(ctx context.Context, limit int) (int, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	taxonomyRepo repository.TaxonomyRepository
	moderation   ModerationService
}

func NewProductService(productRepo repository.ProductRepository, taxonomyRepo repository.TaxonomyRepository, moderationSvc ModerationService) ProductService {
	return &productService{
		productRepo:  productRepo,
		taxonomyRepo: taxonomyRepo,
		moderation:   moderationSvc,
	}
}

func (s *productService) validate(ctx context.Context, product *model.Product) error {
	if product.Title == "" {
		return ErrTitleEmpty
	}
	if utf8.RuneCountInString(product.Title) > 50 {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(product.Description) > 550 {
		return ErrDescriptionTooLong
	}
	if product.Price <= 0 {
		return ErrPriceInvalid
	}
	if _, err := s.taxonomyRepo.GetCategory(ctx, product.CategoryID); err != nil {
		return err
	}
	if _, err := s.taxonomyRepo.GetCountry(ctx, product.CountryID); err != nil {
		return err
	}
	city, err := s.taxonomyRepo.GetCity(ctx, product.CityID)
	if err != nil {
		return err
	}
	if city.CountryID != product.CountryID {
		return repository.ErrCityNotFound
	}
	if _, err := s.taxonomyRepo.GetCurrency(ctx, product.CurrencyID); err != nil {
		return err
	}
	return nil
}

func (s *productService) Create(ctx context.Context, product *model.Product) error {
	if err := s.validate(ctx, product); err != nil {
		return err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return err
	}
	return s.moderate(ctx, product)
}

func (s *productService) Update(ctx context.Context, product *model.Product) error {
	if product.ID == "" {
		return ErrProductIDEmpty
	}
	existing, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if existing.AuthorID != product.AuthorID {
		return ErrNotOwner
	}
	if err := s.validate(ctx, product); err != nil {
		return err
	}
	if err := s.productRepo.UpdateFields(ctx, product); err != nil {
		return err
	}
	return s.moderate(ctx, product)
}

// moderate 重新读取落库后的记录（取得数据库侧的 updated_at）并送审
func (s *productService) moderate(ctx context.Context, product *model.Product) error {
	fresh, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return err
	}

	status, err := s.moderation.Moderate(ctx, KindProduct, fresh)
	switch {
	case err == nil:
		product.Status = status
		return nil
	case errors.Is(err, ErrVerdictDiscarded):
		// 更新的编辑已接管审核，以当前库内状态为准
		product.Status = model.StatusPending
		return nil
	default:
		product.Status = model.StatusPending
		return err
	}
}

func (s *productService) Get(ctx context.Context, id, viewerID string) (*model.Product, error) {
	if id == "" {
		return nil, ErrProductIDEmpty
	}
	return s.productRepo.GetVisible(ctx, id, viewerID)
}

func (s *productService) List(ctx context.Context, filter *repository.ProductFilter, viewerID string, page *repository.Pagination) ([]*model.Product, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.productRepo.List(ctx, filter, viewerID, page)
}

func (s *productService) Delete(ctx context.Context, id, authorID string) error {
	if id == "" {
		return ErrProductIDEmpty
	}
	return s.productRepo.Delete(ctx, id, authorID)
}

func (s *productService) Counts(ctx context.Context, productID, viewerID string) (*ProductCounts, error) {
	views, err := s.productRepo.CountViews(ctx, productID)
	if err != nil {
		return nil, err
	}
	favorites, err := s.productRepo.CountFavorites(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductCounts{Views: views, Favorites: favorites}, nil
}

func (s *productService) RecordView(ctx context.Context, productID, viewerID string) error {
	if viewerID == "" {
		return nil
	}
	product, err := s.productRepo.GetVisible(ctx, productID, viewerID)
	if err != nil {
		return err
	}
	// 作者浏览自己的商品不计数
	if product.AuthorID == viewerID {
		return nil
	}
	return s.productRepo.RecordView(ctx, viewerID, productID)
}

func (s *productService) ToggleFavorite(ctx context.Context, productID, userID string, add bool) (bool, int64, error) {
	// 不可见的商品不能收藏，也不暴露其存在
	if _, err := s.productRepo.GetVisible(ctx, productID, userID); err != nil {
		return false, 0, err
	}

	var favorited bool
	var err error
	if add {
		favorited = true
		_, err = s.productRepo.AddFavorite(ctx, userID, productID)
	} else {
		favorited = false
		_, err = s.productRepo.RemoveFavorite(ctx, userID, productID)
	}
	if err != nil {
		return false, 0, err
	}

	count, err := s.productRepo.CountFavorites(ctx, productID)
	if err != nil {
		return favorited, 0, err
	}
	return favorited, count, nil
}

func (s *productService) ListFavorites(ctx context.Context, userID string, page *repository.Pagination) ([]*model.Product, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.productRepo.ListFavorites(ctx, userID, page)
}

func (s *productService) RemoderatePending(ctx context.Context, limit int) (int, error) {
	pending, err := s.productRepo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, product := range pending {
		status, err := s.moderation.Moderate(ctx, KindProduct, product)
		if err != nil {
			if errors.Is(err, ErrVerdictDiscarded) {
				continue
			}
			return resolved, err
		}
		if status != model.StatusPending {
			resolved++
		}
	}
	return resolved, nil
}
