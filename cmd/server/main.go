package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/capy-market/capybara-backend/internal/config"
	"github.com/capy-market/capybara-backend/internal/database"
	"github.com/capy-market/capybara-backend/internal/handler"
	"github.com/capy-market/capybara-backend/internal/middleware"
	"github.com/capy-market/capybara-backend/internal/model"
	"github.com/capy-market/capybara-backend/internal/moderation"
	"github.com/capy-market/capybara-backend/internal/redis"
	"github.com/capy-market/capybara-backend/internal/repository"
	"github.com/capy-market/capybara-backend/internal/service"
	"github.com/capy-market/capybara-backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database, cfg.Server.Mode != "release"); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 初始化 Redis 连接
	if err := redis.Init(&cfg.Redis); err != nil {
		log.Fatalf("初始化 Redis 失败: %v", err)
	}
	defer redis.Close()
	log.Println("Redis 连接成功")

	// 自动迁移数据库表
	if err := database.AutoMigrate(
		&model.User{},
		&model.SellerRating{},
		&model.Category{},
		&model.Country{},
		&model.City{},
		&model.Currency{},
		&model.Product{},
		&model.ProductImage{},
		&model.Favorite{},
		&model.ProductView{},
		&model.Comment{},
		&model.PremiumPlan{},
		&model.ProductPremium{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库迁移完成")

	logger := middleware.GetLogger()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(database.GetDB())
	productRepo := repository.NewProductRepository(database.GetDB())
	commentRepo := repository.NewCommentRepository(database.GetDB())
	taxonomyRepo := repository.NewTaxonomyRepository(database.GetDB())
	premiumRepo := repository.NewPremiumRepository(database.GetDB())

	// 加载 RSA 密钥对，未配置时生成临时密钥（重启后旧令牌失效）
	privateKey, err := loadOrGenerateKey(cfg.JWT.PrivateKeyPath)
	if err != nil {
		log.Fatalf("加载 RSA 密钥失败: %v", err)
	}

	// 初始化 Service
	tokenService := service.NewTokenService(&service.TokenServiceConfig{
		PrivateKey:    privateKey,
		PublicKey:     &privateKey.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		AccessExpiry:  cfg.JWT.AccessExpiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
	}, redis.GetClient())
	authService := service.NewAuthService(userRepo, tokenService, cfg.Telegram.BotToken)
	userService := service.NewUserService(userRepo)

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
	premiumService := service.NewPremiumService(premiumRepo, productRepo, logger)

	sweepService := service.NewSweepService(map[string]service.ArchivalTarget{
		service.KindProduct: productRepo,
		service.KindComment: commentRepo,
	}, redis.GetClient(), &service.SweepServiceConfig{
		Threshold: cfg.Sweep.StaleThreshold(),
		LeaseTTL:  cfg.Sweep.LeaseTTL,
	}, logger)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService, commentService)
	commentHandler := handler.NewCommentHandler(commentService)
	taxonomyHandler := handler.NewTaxonomyHandler(taxonomyRepo)
	premiumHandler := handler.NewPremiumHandler(premiumService)

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Metrics())

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		if err := database.Ping(); err != nil {
			dbStatus = "error"
		}

		redisStatus := "ok"
		redisClient := redis.GetClient()
		if redisClient == nil {
			redisStatus = "error"
		} else if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error"
		}

		response.Success(c, gin.H{
			"status":   "ok",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	})

	// Prometheus 指标
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := router.Group("/api/v1")
	{
		// 认证路由（公开）
		auth := api.Group("/auth")
		{
			auth.POST("/telegram", authHandler.TelegramLogin)
			auth.POST("/staff", authHandler.StaffLogin)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		// 基础数据（公开）
		api.GET("/categories", taxonomyHandler.ListCategories)
		api.GET("/countries", taxonomyHandler.ListCountries)
		api.GET("/cities", taxonomyHandler.ListCities)
		api.GET("/currencies", taxonomyHandler.ListCurrencies)
		api.GET("/premium/plans", premiumHandler.ListPlans)

		// 浏览路由：匿名可达，登录后注入身份用于可见性判定
		browse := api.Group("")
		browse.Use(middleware.OptionalJWTAuth(tokenService))
		{
			browse.GET("/products", productHandler.ListProducts)
			browse.GET("/products/:id", productHandler.GetProduct)
			browse.GET("/products/:id/comments", commentHandler.ListComments)
			browse.GET("/products/:id/premium", premiumHandler.ActivePremium)
			browse.GET("/users/:id", userHandler.GetSeller)
		}

		// 需要登录的路由
		authed := api.Group("")
		authed.Use(middleware.JWTAuth(tokenService))
		{
			authed.GET("/users/me", userHandler.Me)
			authed.PUT("/users/me", userHandler.UpdateMe)
			authed.POST("/users/:id/rating", userHandler.RateSeller)

			authed.POST("/products", productHandler.CreateProduct)
			authed.GET("/products/mine", productHandler.MyProducts)
			authed.GET("/products/favorites", productHandler.MyFavorites)
			authed.PUT("/products/:id", productHandler.UpdateProduct)
			authed.DELETE("/products/:id", productHandler.DeleteProduct)
			authed.POST("/products/:id/favorite", productHandler.FavoriteProduct)
			authed.DELETE("/products/:id/favorite", productHandler.UnfavoriteProduct)
			authed.POST("/products/:id/comments", commentHandler.CreateComment)
			authed.PUT("/comments/:id", commentHandler.UpdateComment)
			authed.DELETE("/comments/:id", commentHandler.DeleteComment)
			authed.POST("/products/:id/premium", premiumHandler.Purchase)
		}

		// 运营后台
		admin := api.Group("/admin")
		admin.Use(middleware.JWTAuth(tokenService), middleware.StaffOnly())
		{
			admin.GET("/users", userHandler.ListUsers)
		}
	}

	// 定时任务：内容归档 + 置顶过期
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sweep.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := sweepService.Run(ctx, time.Now()); err != nil {
			log.Printf("归档任务失败: %v", err)
		}
	}); err != nil {
		log.Fatalf("注册归档任务失败: %v", err)
	}
	if _, err := scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := premiumService.ExpireSweep(ctx, time.Now()); err != nil {
			log.Printf("置顶过期处理失败: %v", err)
		}
	}); err != nil {
		log.Fatalf("注册置顶过期任务失败: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		log.Printf("服务启动，监听地址: %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，等待 5 秒
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务关闭失败: %v", err)
	}

	log.Println("服务已关闭")
}

// loadOrGenerateKey 从 PEM 文件加载 RSA 私钥，未配置时生成临时密钥
func loadOrGenerateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		log.Println("未配置 JWT 密钥路径，使用临时生成的密钥")
		return rsa.GenerateKey(rand.Reader, 2048)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("无法解析 PEM 文件: %s", path)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("私钥不是 RSA 类型: %s", path)
	}
	return key, nil
}
