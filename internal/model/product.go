package model

import "time"

// Product 商品（广告）模型
// 状态字段只能由审核流程和归档任务写入，不接受来自更新接口的直接赋值
type Product struct {
	BaseModel
	AuthorID    string        `gorm:"type:char(36);index;not null" json:"author_id"`
	CategoryID  string        `gorm:"type:char(36);index;not null" json:"category_id"`
	CountryID   string        `gorm:"type:char(36);index;not null" json:"country_id"`
	CityID      string        `gorm:"type:char(36);index;not null" json:"city_id"`
	CurrencyID  string        `gorm:"type:char(36);not null" json:"currency_id"`
	Title       string        `gorm:"type:varchar(50);index;not null" json:"title"`
	Description string        `gorm:"type:varchar(550)" json:"description"`
	Price       int64         `gorm:"not null" json:"price"`
	Status      ContentStatus `gorm:"default:0;index" json:"status"`
	IsPremium   bool          `gorm:"default:false;index" json:"is_premium"`

	Author   *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Country  *Country       `gorm:"foreignKey:CountryID" json:"country,omitempty"`
	City     *City          `gorm:"foreignKey:CityID" json:"city,omitempty"`
	Currency *Currency      `gorm:"foreignKey:CurrencyID" json:"currency,omitempty"`
	Images   []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// ContentID 实现 Content 接口
func (p *Product) ContentID() string { return p.ID }

// ContentAuthorID 实现 Content 接口
func (p *Product) ContentAuthorID() string { return p.AuthorID }

// ContentStatus 实现 Content 接口
func (p *Product) ContentStatus() ContentStatus { return p.Status }

// ModerationText 送审文本：标题 + 描述
func (p *Product) ModerationText() string {
	return p.Title + "\n" + p.Description
}

// ContentUpdatedAt 实现 Content 接口
func (p *Product) ContentUpdatedAt() time.Time { return p.UpdatedAt }

// ProductImage 商品图片
type ProductImage struct {
	BaseModel
	ProductID string `gorm:"type:char(36);index;not null" json:"product_id"`
	URL       string `gorm:"type:varchar(500);not null" json:"url"`
	Order     int    `gorm:"column:sort_order;default:0" json:"order"`
}

// TableName 指定表名
func (ProductImage) TableName() string {
	return "product_images"
}

// Favorite 收藏记录，同一用户对同一商品只保留一条
type Favorite struct {
	BaseModel
	UserID    string `gorm:"type:char(36);not null;uniqueIndex:uniq_user_favorite" json:"user_id"`
	ProductID string `gorm:"type:char(36);index;not null;uniqueIndex:uniq_user_favorite" json:"product_id"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 指定表名
func (Favorite) TableName() string {
	return "favorites"
}

// ProductView 浏览记录，同一用户对同一商品只计一次
type ProductView struct {
	BaseModel
	ProductID string `gorm:"type:char(36);not null;uniqueIndex:uniq_product_user_view" json:"product_id"`
	UserID    string `gorm:"type:char(36);not null;uniqueIndex:uniq_product_user_view" json:"user_id"`
}

// TableName 指定表名
func (ProductView) TableName() string {
	return "product_views"
}
