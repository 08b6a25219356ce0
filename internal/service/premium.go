package service

import (
	"context"
	"errors"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrPlanInactive      = errors.New("套餐未开放购买")
	ErrPremiumNotAllowed = errors.New("只有已发布的商品可以购买置顶")
)

type PremiumService interface {
	ListPlans(ctx context.Context) ([]*model.PremiumPlan, error)
	// Purchase 为商品购买置顶：支付凭证由上游收款流程给出，此处只登记生效
	Purchase(ctx context.Context, productID, authorID, planID, paymentID string) (*model.ProductPremium, error)
	// ActiveForProduct 商品当前生效的置顶
	ActiveForProduct(ctx context.Context, productID string) (*model.ProductPremium, error)
	// ExpireSweep 下线已过期的置顶并撤销商品的置顶标记，返回处理条数
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
}

type premiumService struct {
	premiumRepo repository.PremiumRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewPremiumService(premiumRepo repository.PremiumRepository, productRepo repository.ProductRepository, logger *zap.Logger) PremiumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &premiumService{
		premiumRepo: premiumRepo,
		productRepo: productRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *premiumService) ListPlans(ctx context.Context) ([]*model.PremiumPlan, error) {
	return s.premiumRepo.ListActivePlans(ctx)
}

func (s *premiumService) Purchase(ctx context.Context, productID, authorID, planID, paymentID string) (*model.ProductPremium, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.AuthorID != authorID {
		return nil, ErrNotOwner
	}
	// 待审核/未通过/已归档的商品置顶没有意义
	if product.Status != model.StatusPublished {
		return nil, ErrPremiumNotAllowed
	}

	plan, err := s.premiumRepo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	start := s.now()
	premium := &model.ProductPremium{
		ProductID: productID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   start.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		IsActive:  true,
		PaymentID: paymentID,
	}
	if err := s.premiumRepo.CreateProductPremium(ctx, premium); err != nil {
		return nil, err
	}
	if err := s.productRepo.SetPremium(ctx, productID, true); err != nil {
		return nil, err
	}
	premium.Plan = plan
	return premium, nil
}

func (s *premiumService) ActiveForProduct(ctx context.Context, productID string) (*model.ProductPremium, error) {
	return s.premiumRepo.ActiveForProduct(ctx, productID, s.now())
}

func (s *premiumService) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.premiumRepo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, premium := range expired {
		if err := s.premiumRepo.Deactivate(ctx, premium.ID); err != nil {
			return processed, err
		}
		// 同一商品可能有多条记录，仅当无其他生效置顶时才摘掉标记
		if _, err := s.premiumRepo.ActiveForProduct(ctx, premium.ProductID, now); err != nil {
			if !errors.Is(err, repository.ErrPremiumNotFound) {
				return processed, err
			}
			if err := s.productRepo.SetPremium(ctx, premium.ProductID, false); err != nil {
				return processed, err
			}
		}
		processed++
	}
	if processed > 0 {
		s.logger.Info("置顶过期处理完成", zap.Int("count", processed))
	}
	return processed, nil
}
