package handler

import (
	"errors"

	"github.com/capy-market/capybara-backend/internal/middleware"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/internal/service"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// PremiumHandler 置顶处理器
type PremiumHandler struct {
	premiumService service.PremiumService
}

// NewPremiumHandler 创建置顶处理器
func NewPremiumHandler(premiumSvc service.PremiumService) *PremiumHandler {
	return &PremiumHandler{premiumService: premiumSvc}
}

// ListPlans 在售置顶套餐
// GET /api/v1/premium/plans
func (h *PremiumHandler) ListPlans(c *gin.Context) {
	plans, err := h.premiumService.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, plans)
}

// PurchaseRequest 购买置顶请求
type PurchaseRequest struct {
	PlanID    string `json:"plan_id" binding:"required"`
	PaymentID string `json:"payment_id"`
}

// Purchase 为商品购买置顶（仅作者，仅已发布商品）
// POST /api/v1/products/:id/premium
func (h *PremiumHandler) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	premium, err := h.premiumService.Purchase(c.Request.Context(),
		c.Param("id"), middleware.ViewerID(c), req.PlanID, req.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			response.Error(c, response.CodeProductNotFound)
		case errors.Is(err, repository.ErrPlanNotFound):
			response.Error(c, response.CodePlanNotFound)
		case errors.Is(err, service.ErrNotOwner):
			response.Error(c, response.CodeForbidden)
		case errors.Is(err, service.ErrPremiumNotAllowed):
			response.Error(c, response.CodePremiumNotAllowed)
		case errors.Is(err, service.ErrPlanInactive):
			response.Error(c, response.CodePlanInactive)
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}
	response.Success(c, premium)
}

// ActivePremium 商品当前生效的置顶
// GET /api/v1/products/:id/premium
func (h *PremiumHandler) ActivePremium(c *gin.Context) {
	premium, err := h.premiumService.ActiveForProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrPremiumNotFound) {
			response.Success(c, nil)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}
	response.Success(c, premium)
}
