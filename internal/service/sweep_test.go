package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProductAt(t *testing.T, repo *mockProductRepository, status model.ContentStatus, updatedAt time.Time) *model.Product {
	t.Helper()
	product := &model.Product{Title: "商品", Description: "描述", Price: 100, AuthorID: "seller-1"}
	require.NoError(t, repo.Create(context.Background(), product))
	repo.setStatus(product.ID, status)
	repo.setUpdatedAt(product.ID, updatedAt)
	return product
}

func TestSweepService_ArchivesStalePublished(t *testing.T) {
	productRepo := newMockProductRepository()
	commentRepo := newMockCommentRepository()
	now := time.Now()

	stale := seedProductAt(t, productRepo, model.StatusPublished, now.Add(-29*24*time.Hour))
	fresh := seedProductAt(t, productRepo, model.StatusPublished, now.Add(-1*24*time.Hour))
	pending := seedProductAt(t, productRepo, model.StatusPending, now.Add(-60*24*time.Hour))
	rejected := seedProductAt(t, productRepo, model.StatusRejected, now.Add(-60*24*time.Hour))

	staleComment := &model.Comment{ProductID: stale.ID, AuthorID: "buyer-1", Text: "评论"}
	require.NoError(t, commentRepo.Create(context.Background(), staleComment))
	commentRepo.comments[staleComment.ID].Status = model.StatusPublished
	commentRepo.comments[staleComment.ID].UpdatedAt = now.Add(-30 * 24 * time.Hour)

	svc := NewSweepService(map[string]ArchivalTarget{
		KindProduct: productRepo,
		KindComment: commentRepo,
	}, nil, nil, nil)

	total, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	assertStatus := func(id string, want model.ContentStatus) {
		t.Helper()
		p, err := productRepo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Status)
	}
	assertStatus(stale.ID, model.StatusArchived)
	assertStatus(fresh.ID, model.StatusPublished)
	// 归档只触碰已发布内容
	assertStatus(pending.ID, model.StatusPending)
	assertStatus(rejected.ID, model.StatusRejected)

	c, err := commentRepo.GetByID(context.Background(), staleComment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, c.Status)
}

// 同一时间点重复运行不产生二次效果
func TestSweepService_Idempotent(t *testing.T) {
	productRepo := newMockProductRepository()
	now := time.Now()
	seedProductAt(t, productRepo, model.StatusPublished, now.Add(-40*24*time.Hour))

	svc := NewSweepService(map[string]ArchivalTarget{KindProduct: productRepo}, nil, nil, nil)

	total, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	total, err = svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestSweepService_CustomThreshold(t *testing.T) {
	productRepo := newMockProductRepository()
	now := time.Now()
	product := seedProductAt(t, productRepo, model.StatusPublished, now.Add(-8*24*time.Hour))

	svc := NewSweepService(map[string]ArchivalTarget{KindProduct: productRepo},
		nil, &SweepServiceConfig{Threshold: 7 * 24 * time.Hour}, nil)

	total, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	p, err := productRepo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, p.Status)
}

// 租约被其他实例持有时本次运行让位
func TestSweepService_LeaseMutualExclusion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	productRepo := newMockProductRepository()
	now := time.Now()
	seedProductAt(t, productRepo, model.StatusPublished, now.Add(-40*24*time.Hour))

	svc := NewSweepService(map[string]ArchivalTarget{KindProduct: productRepo}, client, nil, nil)

	// 其他实例先拿到租约
	require.NoError(t, mr.Set(sweepLeaseKey, "other-instance"))

	_, err := svc.Run(context.Background(), now)
	assert.ErrorIs(t, err, ErrSweepNotAcquired)

	// 租约释放后恢复正常
	mr.Del(sweepLeaseKey)
	total, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// 运行结束后租约释放
	assert.False(t, mr.Exists(sweepLeaseKey))
}

// 被拒绝的商品经编辑重新过审后，updated_at 以编辑时间为准，
// 按滞留前旧时间计算保鲜期的归档任务不会误伤刚重新发布的商品
func TestSweepService_SkipsFreshlyRemoderated(t *testing.T) {
	env := newProductTestEnv(t)
	now := time.Now()

	env.classifier.scores["违禁"] = map[string]float64{"illegal": 0.9}
	product := env.newProduct("seller-1", "违禁商品")
	require.NoError(t, env.svc.Create(context.Background(), product))

	rejected, err := env.repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusRejected, rejected.Status)

	// 商品在被拒状态滞留了 29 天
	env.repo.setUpdatedAt(product.ID, now.Add(-29*24*time.Hour))

	// 改掉违规文案后重新送审并过审
	edited := env.newProduct("seller-1", "普通商品")
	edited.ID = product.ID
	require.NoError(t, env.svc.Update(context.Background(), edited))

	fresh, err := env.repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPublished, fresh.Status)
	// updated_at 已刷新为编辑时间，不保留滞留期间的旧值
	assert.True(t, fresh.UpdatedAt.After(now.Add(-time.Minute)))

	svc := NewSweepService(map[string]ArchivalTarget{KindProduct: env.repo}, nil, nil, nil)
	total, err := svc.Run(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	after, err := env.repo.GetByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, after.Status)
}
