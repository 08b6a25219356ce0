package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
)

var (
	ErrCommentIDEmpty    = errors.New("评论 ID 不能为空")
	ErrCommentTextEmpty  = errors.New("评论内容不能为空")
	ErrCommentTextTooLong = errors.New("评论长度不能超过 1000 个字符")
)

type CommentService interface {
	// Create 发表评论：商品对评论者可见才允许，落库为待审核并同步送审
	Create(ctx context.Context, comment *model.Comment) error
	// Update 编辑评论：重置为待审核并重新送审
	Update(ctx context.Context, comment *model.Comment) error
	// Get 详情读取，应用可见性过滤
	Get(ctx context.Context, id, viewerID string) (*model.Comment, error)
	// ListByProduct 商品下的评论：商品本身必须对查看者可见
	ListByProduct(ctx context.Context, productID, viewerID string, page *repository.Pagination) ([]*model.Comment, int64, error)
	// CountVisible 对非作者仅统计已发布评论
	CountVisible(ctx context.Context, productID, viewerID string) (int64, error)
	Delete(ctx context.Context, id, authorID string) error

	// RemoderatePending 重新送审停留在待审核状态的评论（故障恢复）
	RemoderatePending(ctx context.Context, limit int) (int, error)
}

type commentService struct {
	commentRepo repository.CommentRepository
	productRepo repository.ProductRepository
	moderation  ModerationService
}

func NewCommentService(commentRepo repository.CommentRepository, productRepo repository.ProductRepository, moderationSvc ModerationService) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		productRepo: productRepo,
		moderation:  moderationSvc,
	}
}

func validateCommentText(text string) error {
	if text == "" {
		return ErrCommentTextEmpty
	}
	if utf8.RuneCountInString(text) > 1000 {
		return ErrCommentTextTooLong
	}
	return nil
}

func (s *commentService) Create(ctx context.Context, comment *model.Comment) error {
	if err := validateCommentText(comment.Text); err != nil {
		return err
	}
	// 商品不可见时评论接口返回"不存在"，不暴露隐藏商品
	if _, err := s.productRepo.GetVisible(ctx, comment.ProductID, comment.AuthorID); err != nil {
		return err
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return err
	}
	return s.moderate(ctx, comment)
}

func (s *commentService) Update(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		return ErrCommentIDEmpty
	}
	if err := validateCommentText(comment.Text); err != nil {
		return err
	}
	existing, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}
	if existing.AuthorID != comment.AuthorID {
		return ErrNotOwner
	}
	if err := s.commentRepo.UpdateText(ctx, comment); err != nil {
		return err
	}
	return s.moderate(ctx, comment)
}

func (s *commentService) moderate(ctx context.Context, comment *model.Comment) error {
	fresh, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}

	status, err := s.moderation.Moderate(ctx, KindComment, fresh)
	switch {
	case err == nil:
		comment.Status = status
		return nil
	case errors.Is(err, ErrVerdictDiscarded):
		comment.Status = model.StatusPending
		return nil
	default:
		comment.Status = model.StatusPending
		return err
	}
}

func (s *commentService) Get(ctx context.Context, id, viewerID string) (*model.Comment, error) {
	if id == "" {
		return nil, ErrCommentIDEmpty
	}
	return s.commentRepo.GetVisible(ctx, id, viewerID)
}

func (s *commentService) ListByProduct(ctx context.Context, productID, viewerID string, page *repository.Pagination) ([]*model.Comment, int64, error) {
	if _, err := s.productRepo.GetVisible(ctx, productID, viewerID); err != nil {
		return nil, 0, err
	}
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.commentRepo.ListByProduct(ctx, productID, viewerID, page)
}

func (s *commentService) CountVisible(ctx context.Context, productID, viewerID string) (int64, error) {
	return s.commentRepo.CountVisible(ctx, productID, viewerID)
}

func (s *commentService) Delete(ctx context.Context, id, authorID string) error {
	if id == "" {
		return ErrCommentIDEmpty
	}
	return s.commentRepo.Delete(ctx, id, authorID)
}

func (s *commentService) RemoderatePending(ctx context.Context, limit int) (int, error) {
	pending, err := s.commentRepo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, comment := range pending {
		status, err := s.moderation.Moderate(ctx, KindComment, comment)
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
