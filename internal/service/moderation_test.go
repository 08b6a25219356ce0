package service

import (
	"context"
	"testing"
	"time"

	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestModerationService(client moderation.Client, productRepo *mockProductRepository, commentRepo *mockCommentRepository) ModerationService {
	writers := map[string]StatusWriter{}
	if productRepo != nil {
		writers[KindProduct] = productRepo
	}
	if commentRepo != nil {
		writers[KindComment] = commentRepo
	}
	cfg := &ModerationServiceConfig{MaxRetries: 1, RetryBackoff: time.Millisecond}
	return NewModerationService(client, writers, cfg, zap.NewNop())
}

func seedPendingProduct(t *testing.T, repo *mockProductRepository, title string) *model.Product {
	t.Helper()
	product := &model.Product{
		Title:       title,
		Description: "描述",
		Price:       100,
		AuthorID:    "author-1",
	}
	require.NoError(t, repo.Create(context.Background(), product))
	fresh, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, fresh.Status)
	return fresh
}

func TestModerationService_CleanVerdictPublishes(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "普通商品")

	status, err := svc.Moderate(context.Background(), KindProduct, product)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, status)

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, stored.Status)
}

func TestModerationService_FlaggedVerdictRejects(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	classifier.scores["违禁"] = map[string]float64{"harassment": 0.9}
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "违禁商品")

	status, err := svc.Moderate(context.Background(), KindProduct, product)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, status)

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, stored.Status)
}

// 得分恰好等于阈值不判违规，要求严格大于
func TestModerationService_ScoreAtThresholdPublishes(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	classifier.scores["边界"] = map[string]float64{"spam": moderation.RejectThreshold}
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "边界商品")

	status, err := svc.Moderate(context.Background(), KindProduct, product)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, status)
}

// 审核失败必须保持待审核，绝不默认发布
func TestModerationService_ClassifierFailureKeepsPending(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	classifier.err = moderation.ErrClassifierUnavailable
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "商品")

	status, err := svc.Moderate(context.Background(), KindProduct, product)
	assert.ErrorIs(t, err, ErrModerationUnavailable)
	assert.Equal(t, model.StatusPending, status)

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)

	// 失败类错误会按配置重试：1 次调用 + 1 次重试
	assert.Equal(t, 2, classifier.callCount())
}

// 响应格式异常与服务不可用同等处理：走完重试后失败关闭，内容保持待审核
func TestModerationService_MalformedResponseTreatedAsUnavailable(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	classifier.err = moderation.ErrMalformedResponse
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "商品")

	_, err := svc.Moderate(context.Background(), KindProduct, product)
	assert.ErrorIs(t, err, ErrModerationUnavailable)
	// MaxRetries=1：首次调用加一次重试
	assert.Equal(t, 2, classifier.callCount())
}

// 送审期间内容被编辑，旧文本的结论作废，记录保持待审核
func TestModerationService_StaleVerdictDiscarded(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "商品")

	// 模拟并发编辑：库内版本号前移
	repo.setUpdatedAt(product.ID, product.UpdatedAt.Add(time.Second))

	status, err := svc.Moderate(context.Background(), KindProduct, product)
	assert.ErrorIs(t, err, ErrVerdictDiscarded)
	assert.Equal(t, model.StatusPending, status)

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
}

// 结论只会写到待审核记录上，已落定的状态不被覆盖
func TestModerationService_NonPendingUntouched(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "商品")
	repo.setStatus(product.ID, model.StatusPublished)

	_, err := svc.Moderate(context.Background(), KindProduct, product)
	assert.ErrorIs(t, err, ErrVerdictDiscarded)

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, stored.Status)
}

func TestModerationService_UnknownKind(t *testing.T) {
	repo := newMockProductRepository()
	svc := newTestModerationService(newFakeClassifier(), repo, nil)

	product := seedPendingProduct(t, repo, "商品")

	_, err := svc.Moderate(context.Background(), "sticker", product)
	assert.ErrorIs(t, err, ErrUnknownContentKind)
}

// 同一内容的重复送审是幂等的：第一次落定之后，后续结论全部作废
func TestModerationService_RepeatModerationIdempotent(t *testing.T) {
	repo := newMockProductRepository()
	classifier := newFakeClassifier()
	svc := newTestModerationService(classifier, repo, nil)

	product := seedPendingProduct(t, repo, "商品")

	status, err := svc.Moderate(context.Background(), KindProduct, product)
	require.NoError(t, err)
	require.Equal(t, model.StatusPublished, status)

	_, err = svc.Moderate(context.Background(), KindProduct, product)
	assert.ErrorIs(t, err, ErrVerdictDiscarded)

	stored, err := repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, stored.Status)
}

func TestModerationService_CommentVerdict(t *testing.T) {
	commentRepo := newMockCommentRepository()
	classifier := newFakeClassifier()
	classifier.scores["辱骂"] = map[string]float64{"harassment": 0.8}
	svc := newTestModerationService(classifier, nil, commentRepo)

	comment := &model.Comment{ProductID: "p-1", AuthorID: "u-1", Text: "辱骂内容"}
	require.NoError(t, commentRepo.Create(context.Background(), comment))
	fresh, err := commentRepo.GetByID(context.Background(), comment.ID)
	require.NoError(t, err)

	status, err := svc.Moderate(context.Background(), KindComment, fresh)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, status)
}
