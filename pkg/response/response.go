package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 标准响应结构
// 字段顺序：code -> msg -> data
type Response struct {
	Code int         `json:"code"` // 业务状态码，0 表示成功
	Msg  string      `json:"msg"`  // 响应消息（中文）
	Data interface{} `json:"data"` // 响应数据
}

// 业务错误码
const (
	CodeSuccess = 0 // 操作成功

	// 参数错误 10xxx
	CodeInvalidRequest = 10001 // 请求参数无效
	CodeInvalidFormat  = 10002 // 参数格式错误
	CodeMissingParam   = 10003 // 必填参数缺失

	// 认证错误 20xxx
	CodeInvalidCredentials = 20001 // 用户名或密码错误
	CodeInvalidToken       = 20002 // 令牌无效或已过期
	CodeInvalidInitData    = 20003 // Telegram 登录数据校验失败
	CodeAccountDisabled    = 20004 // 账号已被封禁
	CodeForbidden          = 20008 // 无权访问该资源

	// 资源不存在 40xxx
	CodeUserNotFound     = 40001 // 用户不存在
	CodeProductNotFound  = 40002 // 商品不存在
	CodeCommentNotFound  = 40003 // 评论不存在
	CodeCategoryNotFound = 40004 // 分类不存在
	CodeLocationNotFound = 40005 // 国家或城市不存在
	CodeCurrencyNotFound = 40006 // 货币不存在
	CodePlanNotFound     = 40007 // 置顶套餐不存在

	// 业务规则 50xxx
	CodePremiumNotAllowed = 50001 // 商品状态不允许购买置顶
	CodePlanInactive      = 50002 // 套餐未开放购买
	CodeSelfRating        = 50003 // 不能给自己评分

	// 服务器错误 90xxx
	CodeServerError = 90001 // 服务器内部错误
	CodeUnavailable = 90002 // 服务暂时不可用
	CodeTooManyReq  = 90003 // 请求过于频繁

	// 审核服务错误 91xxx
	CodeModerationPending = 91001 // 审核服务暂不可用，内容保持待审核
)

// 错误码对应的消息
var codeMessages = map[int]string{
	CodeSuccess:            "操作成功",
	CodeInvalidRequest:     "请求参数无效",
	CodeInvalidFormat:      "参数格式错误",
	CodeMissingParam:       "必填参数缺失",
	CodeInvalidCredentials: "用户名或密码错误",
	CodeInvalidToken:       "令牌无效或已过期",
	CodeInvalidInitData:    "Telegram 登录数据校验失败",
	CodeAccountDisabled:    "账号已被封禁",
	CodeForbidden:          "无权访问该资源",
	CodeUserNotFound:       "用户不存在",
	CodeProductNotFound:    "商品不存在",
	CodeCommentNotFound:    "评论不存在",
	CodeCategoryNotFound:   "分类不存在",
	CodeLocationNotFound:   "国家或城市不存在",
	CodeCurrencyNotFound:   "货币不存在",
	CodePlanNotFound:       "置顶套餐不存在",
	CodePremiumNotAllowed:  "商品状态不允许购买置顶",
	CodePlanInactive:       "套餐未开放购买",
	CodeSelfRating:         "不能给自己评分",
	CodeServerError:        "服务器内部错误，请稍后重试",
	CodeUnavailable:        "服务暂时不可用",
	CodeTooManyReq:         "请求过于频繁，请稍后重试",
	CodeModerationPending:  "审核服务暂不可用，内容已保存并将保持待审核",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  codeMessages[CodeSuccess],
		Data: data,
	})
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Msg:  msg,
		Data: data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	msg, ok := codeMessages[code]
	if !ok {
		msg = "未知错误"
	}
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// ErrorWithMsg 错误响应（自定义消息）
func ErrorWithMsg(c *gin.Context, code int, msg string) {
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: nil,
	})
}

// ErrorWithData 错误响应（附带数据，审核降级时返回已保存的内容）
func ErrorWithData(c *gin.Context, code int, data interface{}) {
	msg, ok := codeMessages[code]
	if !ok {
		msg = "未知错误"
	}
	c.JSON(codeToHTTPStatus(code), Response{
		Code: code,
		Msg:  msg,
		Data: data,
	})
}

// codeToHTTPStatus 业务错误码转 HTTP 状态码
func codeToHTTPStatus(code int) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code >= 10000 && code < 20000:
		return http.StatusBadRequest
	case code >= 20000 && code < 30000:
		if code == CodeForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case code >= 40000 && code < 50000:
		return http.StatusNotFound
	case code >= 50000 && code < 60000:
		return http.StatusUnprocessableEntity
	case code == CodeTooManyReq:
		return http.StatusTooManyRequests
	case code == CodeModerationPending:
		// 内容已落库，审核结论待定
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}
