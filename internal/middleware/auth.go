package middleware

import (
	"strings"

	"github.com/capy-market/capybara-backend/internal/service"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// JWTAuth JWT 认证中间件
func JWTAuth(tokenService service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 Authorization 头获取令牌
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "未提供认证令牌")
			c.Abort()
			return
		}

		// 检查 Bearer 前缀
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "认证令牌格式错误")
			c.Abort()
			return
		}

		claims, err := tokenService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			switch err {
			case service.ErrTokenExpired:
				response.ErrorWithMsg(c, response.CodeInvalidToken, "令牌已过期")
			case service.ErrTokenRevoked:
				response.ErrorWithMsg(c, response.CodeInvalidToken, "令牌已被吊销")
			default:
				response.Error(c, response.CodeInvalidToken)
			}
			c.Abort()
			return
		}

		// 刷新令牌不能当访问令牌用
		if claims.Type != "access" {
			response.ErrorWithMsg(c, response.CodeInvalidToken, "无效的令牌类型")
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalJWTAuth 可选的 JWT 认证中间件
// 未登录放行（匿名浏览），登录则注入身份用于可见性判定
func OptionalJWTAuth(tokenService service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := tokenService.ValidateToken(c.Request.Context(), parts[1])
		if err == nil && claims.Type == "access" {
			setIdentity(c, claims)
		}

		c.Next()
	}
}

// StaffOnly 运营账号校验，必须在 JWTAuth 之后
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_staff") {
			response.Error(c, response.CodeForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *service.TokenClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("telegram_id", claims.TelegramID)
	c.Set("username", claims.Username)
	c.Set("is_staff", claims.IsStaff)
	c.Set("claims", claims)
}

// ViewerID 当前请求的查看者 ID，匿名时为空串
func ViewerID(c *gin.Context) string {
	return c.GetString("user_id")
}
