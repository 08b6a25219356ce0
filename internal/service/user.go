package service

import (
	"context"
	"errors"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
)

var (
	ErrUserIDEmpty     = errors.New("用户 ID 不能为空")
	ErrScoreOutOfRange = errors.New("评分必须在 1 到 5 之间")
	ErrSelfRating      = errors.New("不能给自己评分")
)

// SellerProfile 卖家档案：平均分按已有评分计算
type SellerProfile struct {
	User        *model.User `json:"user"`
	AvgRating   float64     `json:"avg_rating"`
	RatingCount int64       `json:"rating_count"`
}

type UserService interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	// UpdateProfile 仅允许本人更新姓名与头像，telegram_id、username 不可改
	UpdateProfile(ctx context.Context, userID, firstName, lastName, photoURL string) (*model.User, error)
	List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error)

	// RateSeller 给卖家评分（1-5），重复评分覆盖旧值
	RateSeller(ctx context.Context, raterID, sellerID string, score int) error
	// SellerProfile 卖家档案（含评分聚合）
	SellerProfile(ctx context.Context, sellerID string) (*SellerProfile, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) UpdateProfile(ctx context.Context, userID, firstName, lastName, photoURL string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName
	user.LastName = lastName
	user.PhotoURL = photoURL
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filter *repository.UserFilter, page *repository.Pagination) ([]*model.User, int64, error) {
	if page == nil {
		page = &repository.Pagination{Page: 1, PageSize: 20}
	}
	return s.userRepo.List(ctx, filter, page)
}

func (s *userService) RateSeller(ctx context.Context, raterID, sellerID string, score int) error {
	if score < 1 || score > 5 {
		return ErrScoreOutOfRange
	}
	if raterID == sellerID {
		return ErrSelfRating
	}
	if _, err := s.userRepo.GetByID(ctx, sellerID); err != nil {
		return err
	}
	return s.userRepo.Rate(ctx, &model.SellerRating{
		RaterID:  raterID,
		SellerID: sellerID,
		Score:    score,
	})
}

func (s *userService) SellerProfile(ctx context.Context, sellerID string) (*SellerProfile, error) {
	user, err := s.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.userRepo.AverageRating(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return &SellerProfile{User: user, AvgRating: avg, RatingCount: count}, nil
}
