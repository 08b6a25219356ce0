// Package main 数据库迁移工具
package main

import (
	"flag"
	"log"

	"github.com/capy-market/capybara-backend/internal/config"
	"github.com/capy-market/capybara-backend/internal/database"
	"github.com/capy-market/capybara-backend/internal/model"
	"gorm.io/gorm"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "", "配置文件路径")
	seed := flag.Bool("seed", false, "迁移后写入基础数据（分类、地区、货币、套餐）")
	flag.Parse()

	// 加载配置
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

	// 初始化数据库连接
	if err := database.Init(&cfg.Database, false); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 执行迁移
	log.Println("开始执行数据库迁移...")

	// 迁移所有模型
	models := []any{
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
	}

	for _, m := range models {
		if err := database.AutoMigrate(m); err != nil {
			log.Fatalf("迁移失败: %v", err)
		}
	}

	log.Println("数据库迁移完成！")

	if *seed {
		if err := seedBaseData(database.GetDB()); err != nil {
			log.Fatalf("写入基础数据失败: %v", err)
		}
		log.Println("基础数据写入完成！")
	}
}

// seedBaseData 写入上架所需的最小基础数据，已存在的记录跳过
func seedBaseData(db *gorm.DB) error {
	categories := []model.Category{
		{Name: "Electronics", Order: 1},
		{Name: "Clothing", Order: 2},
		{Name: "Home and Garden", Order: 3},
		{Name: "Vehicles", Order: 4},
		{Name: "Services", Order: 5},
		{Name: "Other", Order: 99},
	}
	for i := range categories {
		categories[i].Slugify()
		if err := db.Where("slug = ?", categories[i].Slug).
			FirstOrCreate(&categories[i]).Error; err != nil {
			return err
		}
	}

	currencies := []model.Currency{
		{Name: "US Dollar", Code: "USD", Order: 1},
		{Name: "Euro", Code: "EUR", Order: 2},
		{Name: "Russian Ruble", Code: "RUB", Order: 3},
	}
	for i := range currencies {
		if err := db.Where("code = ?", currencies[i].Code).
			FirstOrCreate(&currencies[i]).Error; err != nil {
			return err
		}
	}

	seedCities := map[string][]string{
		"Serbia":     {"Belgrade", "Novi Sad"},
		"Montenegro": {"Podgorica", "Budva"},
		"Georgia":    {"Tbilisi", "Batumi"},
	}
	for countryName, cityNames := range seedCities {
		country := model.Country{Name: countryName}
		if err := db.Where("name = ?", countryName).FirstOrCreate(&country).Error; err != nil {
			return err
		}
		for _, cityName := range cityNames {
			city := model.City{Name: cityName, CountryID: country.ID}
			if err := db.Where("name = ? AND country_id = ?", cityName, country.ID).
				FirstOrCreate(&city).Error; err != nil {
				return err
			}
		}
	}

	plans := []model.PremiumPlan{
		{Name: "置顶 3 天", DurationDays: 3, Price: 199, IsActive: true},
		{Name: "置顶 7 天", DurationDays: 7, Price: 399, IsActive: true},
		{Name: "置顶 30 天", DurationDays: 30, Price: 999, IsActive: true},
	}
	for i := range plans {
		if err := db.Where("name = ?", plans[i].Name).
			FirstOrCreate(&plans[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
