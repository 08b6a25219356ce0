package handler

import (
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// TaxonomyHandler 基础数据处理器（分类/国家/城市/货币）
type TaxonomyHandler struct {
	taxonomyRepo repository.TaxonomyRepository
}

// NewTaxonomyHandler 创建基础数据处理器
func NewTaxonomyHandler(taxonomyRepo repository.TaxonomyRepository) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyRepo: taxonomyRepo}
}

// ListCategories 分类列表
// GET /api/v1/categories
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	categories, err := h.taxonomyRepo.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, categories)
}

// ListCountries 国家列表
// GET /api/v1/countries
func (h *TaxonomyHandler) ListCountries(c *gin.Context) {
	countries, err := h.taxonomyRepo.ListCountries(c.Request.Context())
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, countries)
}

// ListCities 城市列表，可按国家过滤
// GET /api/v1/cities?country_id=
func (h *TaxonomyHandler) ListCities(c *gin.Context) {
	cities, err := h.taxonomyRepo.ListCities(c.Request.Context(), c.Query("country_id"))
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, cities)
}

// ListCurrencies 货币列表
// GET /api/v1/currencies
func (h *TaxonomyHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.taxonomyRepo.ListCurrencies(c.Request.Context())
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, currencies)
}
