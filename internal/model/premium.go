package model

import "time"

// PremiumPlan 置顶套餐
type PremiumPlan struct {
	BaseModel
	Name         string `gorm:"type:varchar(30);not null" json:"name"`
	DurationDays int    `gorm:"not null" json:"duration_days"`
	Price        int64  `gorm:"default:0" json:"price"`
	Description  string `gorm:"type:text" json:"description"`
	IsActive     bool   `gorm:"default:false;index" json:"is_active"`
}

// TableName 指定表名
func (PremiumPlan) TableName() string {
	return "premium_plans"
}

// ProductPremium 商品置顶记录
type ProductPremium struct {
	BaseModel
	ProductID string    `gorm:"type:char(36);index;not null" json:"product_id"`
	PlanID    string    `gorm:"type:char(36);not null" json:"plan_id"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"index;not null" json:"end_date"`
	IsActive  bool      `gorm:"default:false;index" json:"is_active"`
	PaymentID string    `gorm:"type:varchar(100)" json:"payment_id,omitempty"`

	Plan    *PremiumPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Product *Product     `gorm:"foreignKey:ProductID" json:"-"`
}

// TableName 指定表名
func (ProductPremium) TableName() string {
	return "product_premiums"
}

// Expired 判断置顶是否已到期
func (pp *ProductPremium) Expired(now time.Time) bool {
	return now.After(pp.EndDate)
}
