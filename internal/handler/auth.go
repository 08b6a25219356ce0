// Package handler HTTP 处理器
package handler

import (
	"errors"

	"github.com/capy-market/capybara-backend/internal/service"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authSvc}
}

// TelegramLoginRequest Telegram Mini App 登录请求
type TelegramLoginRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// TelegramLogin Telegram Mini App 登录
// POST /api/v1/auth/telegram
func (h *AuthHandler) TelegramLogin(c *gin.Context) {
	var req TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user, access, refresh, err := h.authService.LoginWithTelegram(c.Request.Context(), req.InitData)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInitDataInvalid), errors.Is(err, service.ErrInitDataExpired):
			response.Error(c, response.CodeInvalidInitData)
		case errors.Is(err, service.ErrUserDisabled):
			response.Error(c, response.CodeAccountDisabled)
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          userProfile(user),
	})
}

// StaffLoginRequest 运营账号登录请求
type StaffLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StaffLogin 运营账号登录
// POST /api/v1/auth/staff
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	user, access, refresh, err := h.authService.StaffLogin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordIncorrect):
			response.Error(c, response.CodeInvalidCredentials)
		case errors.Is(err, service.ErrUserDisabled):
			response.Error(c, response.CodeAccountDisabled)
		default:
			response.Error(c, response.CodeServerError)
		}
		return
	}

	response.Success(c, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          userProfile(user),
	})
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 用刷新令牌换取新令牌对
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	access, refresh, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserDisabled):
			response.Error(c, response.CodeAccountDisabled)
		default:
			response.Error(c, response.CodeInvalidToken)
		}
		return
	}

	response.Success(c, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Logout 登出：吊销刷新令牌
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, response.CodeInvalidToken)
		return
	}
	response.Success(c, nil)
}
