// Package main 一次性归档工具：归档过期内容并处理到期置顶
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/capy-market/capybara-backend/internal/config"
	"github.com/capy-market/capybara-backend/internal/database"
	"github.com/capy-market/capybara-backend/internal/middleware"
	"github.com/capy-market/capybara-backend/internal/redis"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	staleDays := flag.Int("stale-days", 0, "覆盖配置中的保鲜期天数")
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

	if err := redis.Init(&cfg.Redis); err != nil {
		log.Fatalf("初始化 Redis 失败: %v", err)
	}
	defer redis.Close()

	logger := middleware.GetLogger()

	productRepo := repository.NewProductRepository(database.GetDB())
	commentRepo := repository.NewCommentRepository(database.GetDB())
	premiumRepo := repository.NewPremiumRepository(database.GetDB())

	threshold := cfg.Sweep.StaleThreshold()
	if *staleDays > 0 {
		threshold = time.Duration(*staleDays) * 24 * time.Hour
	}

	sweepService := service.NewSweepService(map[string]service.ArchivalTarget{
		service.KindProduct: productRepo,
		service.KindComment: commentRepo,
	}, redis.GetClient(), &service.SweepServiceConfig{
		Threshold: threshold,
		LeaseTTL:  cfg.Sweep.LeaseTTL,
	}, logger)
	premiumService := service.NewPremiumService(premiumRepo, productRepo, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	archived, err := sweepService.Run(ctx, time.Now())
	if err != nil {
		if err == service.ErrSweepNotAcquired {
			log.Println("另一实例正在执行归档，本次跳过")
			return
		}
		log.Fatalf("归档任务失败: %v", err)
	}
	log.Printf("归档完成，共归档 %d 条内容", archived)

	expired, err := premiumService.ExpireSweep(ctx, time.Now())
	if err != nil {
		log.Fatalf("置顶过期处理失败: %v", err)
	}
	log.Printf("置顶过期处理完成，共下线 %d 条置顶", expired)
}
