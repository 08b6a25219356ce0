package service

import (
	"context"
	"errors"
	"time"

	"github.com/capy-market/capybara-backend/internal/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrSweepNotAcquired 其他实例正在执行归档任务
var ErrSweepNotAcquired = errors.New("归档任务已由其他实例持有")

// DefaultStaleThreshold 默认保鲜期：28 天未更新的已发布内容被归档
const DefaultStaleThreshold = 28 * 24 * time.Hour

// sweepLeaseKey 跨实例互斥用的 Redis 键
const sweepLeaseKey = "sweep:lease"

// ArchivalTarget 参与归档的内容仓储
type ArchivalTarget interface {
	ArchiveStale(ctx context.Context, now time.Time, threshold time.Duration) (int64, error)
}

// SweepService 归档任务
// 幂等：同一时间点重复运行不会产生二次效果，
// 只处理已发布内容，绝不触碰待审核/未通过/已归档的记录
type SweepService interface {
	// Run 执行一次归档，返回受影响的记录总数
	Run(ctx context.Context, now time.Time) (int64, error)
}

// SweepServiceConfig 归档任务配置
type SweepServiceConfig struct {
	Threshold time.Duration // 保鲜期，默认 28 天
	LeaseTTL  time.Duration // 跨实例租约时长，默认 5 分钟
}

type sweepService struct {
	targets map[string]ArchivalTarget
	redis   *redis.Client // 可为 nil（单实例部署或一次性运行）
	cfg     SweepServiceConfig
	logger  *zap.Logger
}

// NewSweepService 创建归档任务
// redisClient 为 nil 时跳过跨实例互斥
func NewSweepService(targets map[string]ArchivalTarget, redisClient *redis.Client, cfg *SweepServiceConfig, logger *zap.Logger) SweepService {
	c := SweepServiceConfig{Threshold: DefaultStaleThreshold, LeaseTTL: 5 * time.Minute}
	if cfg != nil {
		if cfg.Threshold > 0 {
			c.Threshold = cfg.Threshold
		}
		if cfg.LeaseTTL > 0 {
			c.LeaseTTL = cfg.LeaseTTL
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sweepService{
		targets: targets,
		redis:   redisClient,
		cfg:     c,
		logger:  logger,
	}
}

func (s *sweepService) Run(ctx context.Context, now time.Time) (int64, error) {
	if s.redis != nil {
		acquired, err := s.redis.SetNX(ctx, sweepLeaseKey, now.Format(time.RFC3339), s.cfg.LeaseTTL).Result()
		if err != nil {
			return 0, err
		}
		if !acquired {
			return 0, ErrSweepNotAcquired
		}
		defer s.redis.Del(context.WithoutCancel(ctx), sweepLeaseKey)
	}

	var total int64
	for kind, target := range s.targets {
		count, err := target.ArchiveStale(ctx, now, s.cfg.Threshold)
		if err != nil {
			metrics.SweepRuns.WithLabelValues("error").Inc()
			return total, err
		}
		if count > 0 {
			metrics.ArchivedTotal.WithLabelValues(kind).Add(float64(count))
		}
		s.logger.Info("归档完成",
			zap.String("kind", kind),
			zap.Int64("archived", count),
			zap.Duration("threshold", s.cfg.Threshold),
		)
		total += count
	}
	metrics.SweepRuns.WithLabelValues("ok").Inc()
	return total, nil
}
