package repository

import (
	"context"
	"errors"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("评论不存在")

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	// GetVisible 按查看者身份过滤
	GetVisible(ctx context.Context, id, viewerID string) (*model.Comment, error)
	// ListByProduct 商品下的评论，应用可见性过滤
	ListByProduct(ctx context.Context, productID, viewerID string, page *Pagination) ([]*model.Comment, int64, error)
	// CountVisible 对非作者仅统计已发布评论
	CountVisible(ctx context.Context, productID, viewerID string) (int64, error)
	// UpdateText 更新正文并重置为待审核
	UpdateText(ctx context.Context, comment *model.Comment) error
	Delete(ctx context.Context, id, authorID string) error

	UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error)
	ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error)
	ListPending(ctx context.Context, limit int) ([]*model.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	comment.Status = model.Transition(comment.Status, model.EventCreated)
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ?", id).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) GetVisible(ctx context.Context, id, viewerID string) (*model.Comment, error) {
	query := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id)
	query = visibleScope(query, viewerID)

	var comment model.Comment
	if err := query.First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByProduct(ctx context.Context, productID, viewerID string, page *Pagination) ([]*model.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("product_id = ?", productID)
	query = visibleScope(query, viewerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset, limit := offsetLimit(page); limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var comments []*model.Comment
	err := query.Preload("Author").Order("created_at DESC").Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) CountVisible(ctx context.Context, productID, viewerID string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("product_id = ?", productID)
	query = visibleScope(query, viewerID)

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *commentRepository) UpdateText(ctx context.Context, comment *model.Comment) error {
	next := model.Transition(comment.Status, model.EventEdited)
	result := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND author_id = ?", comment.ID, comment.AuthorID).
		Updates(map[string]interface{}{
			"text":       comment.Text,
			"status":     next,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	comment.Status = next
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id, authorID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&model.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND status = ? AND updated_at = ?", id, model.StatusPending, seenUpdatedAt).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *commentRepository) ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error) {
	cutoff := now.Add(-threshold)
	result := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("status = ? AND updated_at < ?", model.StatusPublished, cutoff).
		Updates(map[string]interface{}{
			"status":     model.StatusArchived,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (r *commentRepository) ListPending(ctx context.Context, limit int) ([]*model.Comment, error) {
	var comments []*model.Comment
	query := r.db.WithContext(ctx).
		Where("status = ?", model.StatusPending).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&comments).Error
	return comments, err
}
