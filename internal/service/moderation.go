// Package service 业务逻辑层
package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/capy-market/capybara-backend/internal/metrics"
	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/moderation"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	// ErrModerationUnavailable 审核服务不可用，内容停留在待审核状态，可重试
	ErrModerationUnavailable = errors.New("审核服务暂不可用，内容将保持待审核状态")
	// ErrVerdictDiscarded 送审期间记录被并发修改，本次审核结论已丢弃
	ErrVerdictDiscarded = errors.New("内容在审核期间被修改，审核结论已丢弃")
	// ErrUnknownContentKind 未注册的内容类型
	ErrUnknownContentKind = errors.New("未知的内容类型")
)

// 内容类型标识（指标与日志用）
const (
	KindProduct = "product"
	KindComment = "comment"
)

// StatusWriter 审核服务对内容仓储的最小依赖：
// 仅当记录仍处于待审核且自送审起未被修改时写入结论
type StatusWriter interface {
	UpdateStatusIf(ctx context.Context, id string, next model.ContentStatus, seenUpdatedAt time.Time) (bool, error)
}

// ModerationService 审核触发器
// 内容创建或编辑进入待审核后同步调用，产出一次状态写入；
// 结论通过定向状态更新落库，不会再次触发审核
type ModerationService interface {
	// Moderate 对内容执行一次审核并落库结论，返回落库后的状态
	// 审核失败时返回 ErrModerationUnavailable 且状态保持待审核，绝不默认发布
	Moderate(ctx context.Context, kind string, content model.Content) (model.ContentStatus, error)
}

// ModerationServiceConfig 审核服务配置
type ModerationServiceConfig struct {
	MaxRetries   uint          // 分类调用的额外重试次数，默认 2
	RetryBackoff time.Duration // 首次重试间隔，默认 500ms
}

type moderationService struct {
	client  moderation.Client
	writers map[string]StatusWriter
	cfg     ModerationServiceConfig
	logger  *zap.Logger

	// 按内容 ID 分片加锁，保证同一内容至多一个在途审核
	locks [64]sync.Mutex
}

// NewModerationService 创建审核服务
func NewModerationService(client moderation.Client, writers map[string]StatusWriter, cfg *ModerationServiceConfig, logger *zap.Logger) ModerationService {
	c := ModerationServiceConfig{MaxRetries: 2, RetryBackoff: 500 * time.Millisecond}
	if cfg != nil {
		c = *cfg
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &moderationService{
		client:  client,
		writers: writers,
		cfg:     c,
		logger:  logger,
	}
}

func (s *moderationService) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}

func (s *moderationService) Moderate(ctx context.Context, kind string, content model.Content) (model.ContentStatus, error) {
	writer, ok := s.writers[kind]
	if !ok {
		return content.ContentStatus(), fmt.Errorf("%w: %s", ErrUnknownContentKind, kind)
	}

	mu := s.lockFor(content.ContentID())
	mu.Lock()
	defer mu.Unlock()

	// 送审前记录版本，落库时校验，编辑竞争时后来者获胜
	seenUpdatedAt := content.ContentUpdatedAt()

	scores, err := s.classify(ctx, content.ModerationText())
	if err != nil {
		metrics.ClassifierFailures.Inc()
		s.logger.Warn("审核调用失败，内容保持待审核",
			zap.String("kind", kind),
			zap.String("content_id", content.ContentID()),
			zap.Error(err),
		)
		return model.StatusPending, fmt.Errorf("%w: %v", ErrModerationUnavailable, err)
	}

	event := model.EventVerdictFlagged
	verdict := moderation.Decide(scores)
	if verdict == moderation.VerdictAccept {
		event = model.EventVerdictClean
	}
	next := model.Transition(model.StatusPending, event)
	metrics.ModerationVerdicts.WithLabelValues(kind, verdict.String()).Inc()

	applied, err := writer.UpdateStatusIf(ctx, content.ContentID(), next, seenUpdatedAt)
	if err != nil {
		return model.StatusPending, fmt.Errorf("写入审核结论失败: %w", err)
	}
	if !applied {
		// 记录已被新的编辑抢先置为待审核，旧文本的结论作废
		metrics.StaleVerdictsDiscarded.Inc()
		s.logger.Info("审核结论因并发编辑被丢弃",
			zap.String("kind", kind),
			zap.String("content_id", content.ContentID()),
		)
		return model.StatusPending, ErrVerdictDiscarded
	}

	s.logger.Info("审核完成",
		zap.String("kind", kind),
		zap.String("content_id", content.ContentID()),
		zap.String("verdict", verdict.String()),
		zap.String("status", next.String()),
	)
	return next, nil
}

// classify 带有限重试的分类调用，仅对审核失败类错误重试
func (s *moderationService) classify(ctx context.Context, text string) (map[string]float64, error) {
	var scores map[string]float64

	op := func() error {
		var err error
		scores, err = s.client.Classify(ctx, text)
		if err != nil && !moderation.IsClassifyError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.cfg.MaxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return scores, nil
}
