package handler

import (
	"strconv"

	"github.com/capy-market/capybara-backend/internal/middleware"
	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/internal/service"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// CommentHandler 评论处理器
type CommentHandler struct {
	commentService service.CommentService
}

// NewCommentHandler 创建评论处理器
func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentSvc}
}

// commentJSON 评论响应
func commentJSON(comment *model.Comment) gin.H {
	data := gin.H{
		"id":         comment.ID,
		"product_id": comment.ProductID,
		"author_id":  comment.AuthorID,
		"text":       comment.Text,
		"status":     comment.Status.String(),
		"created_at": comment.CreatedAt,
		"updated_at": comment.UpdatedAt,
	}
	if comment.Author != nil {
		data["author"] = userProfile(comment.Author)
	}
	return data
}

// CommentRequest 发表/编辑评论请求
type CommentRequest struct {
	Text string `json:"text" binding:"required,max=1000"`
}

// CreateComment 发表评论：落库为待审核，同步送审
// POST /api/v1/products/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	comment := &model.Comment{
		ProductID: c.Param("id"),
		AuthorID:  middleware.ViewerID(c),
		Text:      req.Text,
	}
	err := h.commentService.Create(c.Request.Context(), comment)
	respondModerated(c, commentJSON(comment), err)
}

// UpdateComment 编辑评论：重置为待审核并重新送审
// PUT /api/v1/comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidRequest, "参数错误: "+err.Error())
		return
	}

	comment := &model.Comment{
		AuthorID: middleware.ViewerID(c),
		Text:     req.Text,
	}
	comment.ID = c.Param("id")
	err := h.commentService.Update(c.Request.Context(), comment)
	respondModerated(c, commentJSON(comment), err)
}

// ListComments 商品下的评论（商品本身须对查看者可见）
// GET /api/v1/products/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := &repository.Pagination{Page: page, PageSize: pageSize}

	comments, total, err := h.commentService.ListByProduct(
		c.Request.Context(), c.Param("id"), middleware.ViewerID(c), pagination)
	if err != nil {
		response.Error(c, response.CodeProductNotFound)
		return
	}

	list := make([]gin.H, len(comments))
	for i, comment := range comments {
		list[i] = commentJSON(comment)
	}

	response.Success(c, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// DeleteComment 删除评论，仅作者可删
// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	err := h.commentService.Delete(c.Request.Context(), c.Param("id"), middleware.ViewerID(c))
	if err != nil {
		response.Error(c, response.CodeCommentNotFound)
		return
	}
	response.Success(c, nil)
}
