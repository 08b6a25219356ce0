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

// UserHandler 用户处理器
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userService: userSvc}
}

// userProfile 用户公开资料
func userProfile(user *model.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"telegram_id":  user.TelegramID,
		"username":     user.Username,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"display_name": user.DisplayName(),
		"photo_url":    user.PhotoURL,
		"is_staff":     user.IsStaff,
		"created_at":   user.CreatedAt,
	}
}

// Me 当前登录用户资料
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.ViewerID(c))
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}
	response.Success(c, userProfile(user))
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url"`
}

// UpdateMe 更新当前用户资料（telegram_id 与用户名不可改）
// PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.ViewerID(c),
		req.FirstName, req.LastName, req.PhotoURL)
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}
	response.Success(c, userProfile(user))
}

// GetSeller 卖家档案（含评分聚合）
// GET /api/v1/users/:id
func (h *UserHandler) GetSeller(c *gin.Context) {
	profile, err := h.userService.SellerProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, response.CodeUserNotFound)
		return
	}

	data := userProfile(profile.User)
	data["avg_rating"] = profile.AvgRating
	data["rating_count"] = profile.RatingCount
	response.Success(c, data)
}

// RateSellerRequest 卖家评分请求
type RateSellerRequest struct {
	Score int `json:"score" binding:"required,min=1,max=5"`
}

// RateSeller 给卖家评分，重复评分覆盖旧值
// POST /api/v1/users/:id/rating
func (h *UserHandler) RateSeller(c *gin.Context) {
	var req RateSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	err := h.userService.RateSeller(c.Request.Context(), middleware.ViewerID(c), c.Param("id"), req.Score)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfRating):
			response.Error(c, response.CodeSelfRating)
		case errors.Is(err, service.ErrScoreOutOfRange):
			response.Error(c, response.CodeInvalidRequest)
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(c, response.CodeUserNotFound)
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}
	response.Success(c, nil)
}

// ListUsers 用户列表（运营后台）
// GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := &repository.UserFilter{
		Username: c.Query("username"),
		Status:   c.Query("status"),
	}
	pagination := &repository.Pagination{Page: page, PageSize: pageSize}

	users, total, err := h.userService.List(c.Request.Context(), filter, pagination)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	list := make([]gin.H, len(users))
	for i, user := range users {
		item := userProfile(user)
		item["status"] = user.Status
		list[i] = item
	}

	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
