package model

import "strings"

// Category 商品分类
type Category struct {
	BaseModel
	Name     string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Slug     string `gorm:"type:varchar(50);uniqueIndex" json:"slug"`
	Order    int    `gorm:"column:sort_order;default:0;index" json:"order"`
	ImageURL string `gorm:"type:varchar(500)" json:"image_url,omitempty"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}

// Slugify 由名称生成 slug
func (c *Category) Slugify() {
	c.Slug = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Name)), " ", "-")
}

// Country 国家
type Country struct {
	BaseModel
	Name string `gorm:"type:varchar(50);index;not null" json:"name"`

	Cities     []City      `gorm:"foreignKey:CountryID" json:"cities,omitempty"`
	Currencies []*Currency `gorm:"many2many:country_currencies" json:"currencies,omitempty"`
}

// TableName 指定表名
func (Country) TableName() string {
	return "countries"
}

// City 城市
type City struct {
	BaseModel
	Name      string `gorm:"type:varchar(50);index;not null" json:"name"`
	CountryID string `gorm:"type:char(36);index;not null" json:"country_id"`

	Country *Country `gorm:"foreignKey:CountryID" json:"-"`
}

// TableName 指定表名
func (City) TableName() string {
	return "cities"
}

// Currency 货币
type Currency struct {
	BaseModel
	Name  string `gorm:"type:varchar(20);index;not null" json:"name"`
	Code  string `gorm:"type:varchar(8);index;not null" json:"code"`
	Order int    `gorm:"column:sort_order;default:0;index" json:"order"`
}

// TableName 指定表名
func (Currency) TableName() string {
	return "currencies"
}
