package handler

import (
	"errors"
	"strconv"

	"github.com/capy-market/capybara-backend/internal/middleware"
	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/internal/service"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// ProductHandler 商品处理器
type ProductHandler struct {
	productService service.ProductService
	commentService service.CommentService
}

// NewProductHandler 创建商品处理器
func NewProductHandler(productSvc service.ProductService, commentSvc service.CommentService) *ProductHandler {
	return &ProductHandler{
		productService: productSvc,
		commentService: commentSvc,
	}
}

// productJSON 商品响应
// 状态字段对作者如实返回，待审核/未通过的商品本就只有作者能拿到
func productJSON(p *model.Product) gin.H {
	data := gin.H{
		"id":          p.ID,
		"author_id":   p.AuthorID,
		"category_id": p.CategoryID,
		"country_id":  p.CountryID,
		"city_id":     p.CityID,
		"currency_id": p.CurrencyID,
		"title":       p.Title,
		"description": p.Description,
		"price":       p.Price,
		"status":      p.Status.String(),
		"is_premium":  p.IsPremium,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
	if p.Author != nil {
		data["author"] = userProfile(p.Author)
	}
	if len(p.Images) > 0 {
		data["images"] = p.Images
	}
	return data
}

// CreateProductRequest 创建/编辑商品请求
// 图片只在创建时写入，编辑接口不改动已有图片
type CreateProductRequest struct {
	Title       string   `json:"title" binding:"required,max=50"`
	Description string   `json:"description" binding:"max=550"`
	Price       int64    `json:"price" binding:"required,gt=0"`
	CategoryID  string   `json:"category_id" binding:"required"`
	CountryID   string   `json:"country_id" binding:"required"`
	CityID      string   `json:"city_id" binding:"required"`
	CurrencyID  string   `json:"currency_id" binding:"required"`
	Images      []string `json:"images" binding:"omitempty,max=10,dive,url,max=500"`
}

func (r *CreateProductRequest) toModel(authorID string) *model.Product {
	images := make([]model.ProductImage, len(r.Images))
	for i, u := range r.Images {
		images[i] = model.ProductImage{URL: u, Order: i}
	}
	return &model.Product{
		AuthorID:    authorID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
		CountryID:   r.CountryID,
		CityID:      r.CityID,
		CurrencyID:  r.CurrencyID,
		Images:      images,
	}
}

// respondModerated 审核流程出口的统一响应
// 审核服务不可用时内容已落库并保持待审核，用 202 告知客户端稍后可查
func respondModerated(c *gin.Context, data gin.H, err error) {
	switch {
	case err == nil:
		response.Success(c, data)
	case errors.Is(err, service.ErrModerationUnavailable):
		response.ErrorWithData(c, response.CodeModerationPending, data)
	case errors.Is(err, service.ErrTitleEmpty),
		errors.Is(err, service.ErrTitleTooLong),
		errors.Is(err, service.ErrDescriptionTooLong),
		errors.Is(err, service.ErrPriceInvalid),
		errors.Is(err, service.ErrCommentTextEmpty),
		errors.Is(err, service.ErrCommentTextTooLong):
		response.ErrorWithMsg(c, response.CodeInvalidRequest, err.Error())
	case errors.Is(err, repository.ErrCategoryNotFound):
		response.Error(c, response.CodeCategoryNotFound)
	case errors.Is(err, repository.ErrCountryNotFound), errors.Is(err, repository.ErrCityNotFound):
		response.Error(c, response.CodeLocationNotFound)
	case errors.Is(err, repository.ErrCurrencyNotFound):
		response.Error(c, response.CodeCurrencyNotFound)
	case errors.Is(err, repository.ErrProductNotFound):
		response.Error(c, response.CodeProductNotFound)
	case errors.Is(err, repository.ErrCommentNotFound):
		response.Error(c, response.CodeCommentNotFound)
	case errors.Is(err, service.ErrNotOwner):
		response.Error(c, response.CodeForbidden)
	default:
		response.Error(c, response.CodeServerError)
	}
}

// CreateProduct 发布商品：落库为待审核，同步送审
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	product := req.toModel(middleware.ViewerID(c))
	err := h.productService.Create(c.Request.Context(), product)
	respondModerated(c, productJSON(product), err)
}

// UpdateProduct 编辑商品：重置为待审核并重新送审
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	product := req.toModel(middleware.ViewerID(c))
	product.ID = c.Param("id")
	err := h.productService.Update(c.Request.Context(), product)
	respondModerated(c, productJSON(product), err)
}

// GetProduct 商品详情，应用可见性过滤
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		// 不可见与不存在统一返回 404，不暴露隐藏商品
		response.Error(c, response.CodeProductNotFound)
		return
	}

	// 浏览计数失败不影响详情返回
	_ = h.productService.RecordView(c.Request.Context(), product.ID, viewerID)

	data := productJSON(product)
	if counts, err := h.productService.Counts(c.Request.Context(), product.ID, viewerID); err == nil {
		data["views_count"] = counts.Views
		data["favorites_count"] = counts.Favorites
	}
	if comments, err := h.commentService.CountVisible(c.Request.Context(), product.ID, viewerID); err == nil {
		data["comments_count"] = comments
	}
	response.Success(c, data)
}

// ListProducts 商品列表，置顶商品排前
// GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	minPrice, _ := strconv.ParseInt(c.Query("min_price"), 10, 64)
	maxPrice, _ := strconv.ParseInt(c.Query("max_price"), 10, 64)

	filter := &repository.ProductFilter{
		CategoryID: c.Query("category_id"),
		CountryID:  c.Query("country_id"),
		CityID:     c.Query("city_id"),
		CurrencyID: c.Query("currency_id"),
		AuthorID:   c.Query("author_id"),
		Search:     c.Query("search"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
	}
	pagination := &repository.Pagination{Page: page, PageSize: pageSize}

	products, total, err := h.productService.List(c.Request.Context(), filter, middleware.ViewerID(c), pagination)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	list := make([]gin.H, len(products))
	for i, p := range products {
		list[i] = productJSON(p)
	}

	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// MyProducts 我发布的商品（含待审核/未通过/已归档）
// GET /api/v1/products/mine
func (h *ProductHandler) MyProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	viewerID := middleware.ViewerID(c)
	filter := &repository.ProductFilter{AuthorID: viewerID}
	pagination := &repository.Pagination{Page: page, PageSize: pageSize}

	products, total, err := h.productService.List(c.Request.Context(), filter, viewerID, pagination)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	list := make([]gin.H, len(products))
	for i, p := range products {
		list[i] = productJSON(p)
	}

	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DeleteProduct 删除商品，仅作者可删
// DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	err := h.productService.Delete(c.Request.Context(), c.Param("id"), middleware.ViewerID(c))
	if err != nil {
		response.Error(c, response.CodeProductNotFound)
		return
	}
	response.Success(c, nil)
}

// FavoriteProduct 收藏商品
// POST /api/v1/products/:id/favorite
func (h *ProductHandler) FavoriteProduct(c *gin.Context) {
	h.toggleFavorite(c, true)
}

// UnfavoriteProduct 取消收藏
// DELETE /api/v1/products/:id/favorite
func (h *ProductHandler) UnfavoriteProduct(c *gin.Context) {
	h.toggleFavorite(c, false)
}

func (h *ProductHandler) toggleFavorite(c *gin.Context, add bool) {
	favorited, count, err := h.productService.ToggleFavorite(
		c.Request.Context(), c.Param("id"), middleware.ViewerID(c), add)
	if err != nil {
		response.Error(c, response.CodeProductNotFound)
		return
	}
	response.Success(c, gin.H{
		"favorited":       favorited,
		"favorites_count": count,
	})
}

// MyFavorites 我收藏的商品
// GET /api/v1/products/favorites
func (h *ProductHandler) MyFavorites(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := &repository.Pagination{Page: page, PageSize: pageSize}

	products, total, err := h.productService.ListFavorites(c.Request.Context(), middleware.ViewerID(c), pagination)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	list := make([]gin.H, len(products))
	for i, p := range products {
		list[i] = productJSON(p)
	}

	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
