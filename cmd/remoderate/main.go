// Package main 审核恢复工具：把停留在待审核状态的内容重新送审
//
// 分类服务故障时内容会留在待审核状态，服务恢复后运行本工具补审。
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/capy-market/capybara-backend/internal/config"
	"github.com/capy-market/capybara-backend/internal/database"
	"github.com/capy-market/capybara-backend/internal/middleware"
	"github.com/capy-market/capybara-backend/internal/moderation"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	limit := flag.Int("limit", 100, "单次处理的最大条数")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if err := database.Init(&cfg.Database, false); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()

	logger := middleware.GetLogger()

	productRepo := repository.NewProductRepository(database.GetDB())
	commentRepo := repository.NewCommentRepository(database.GetDB())
	taxonomyRepo := repository.NewTaxonomyRepository(database.GetDB())

	moderationClient := moderation.NewMistralClient(moderation.MistralConfig{
		APIKey:  cfg.Moderation.APIKey,
		BaseURL: cfg.Moderation.BaseURL,
		Model:   cfg.Moderation.Model,
		Timeout: cfg.Moderation.Timeout,
	})
	moderationService := service.NewModerationService(moderationClient, map[string]service.StatusWriter{
		service.KindProduct: productRepo,
		service.KindComment: commentRepo,
	}, &service.ModerationServiceConfig{MaxRetries: cfg.Moderation.MaxRetries}, logger)

	productService := service.NewProductService(productRepo, taxonomyRepo, moderationService)
	commentService := service.NewCommentService(commentRepo, productRepo, moderationService)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	products, err := productService.RemoderatePending(ctx, *limit)
	if err != nil {
		log.Fatalf("商品补审失败: %v", err)
	}
	comments, err := commentService.RemoderatePending(ctx, *limit)
	if err != nil {
		log.Fatalf("评论补审失败: %v", err)
	}

	log.Printf("补审完成，商品 %d 条，评论 %d 条", products, comments)
}
