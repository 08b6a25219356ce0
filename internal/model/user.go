package model

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User Telegram 用户模型
// 普通用户通过 Telegram initData 登录，无密码；
// 运营账号额外持有 bcrypt 密码哈希
type User struct {
	BaseModel
	TelegramID   int64  `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username     string `gorm:"type:varchar(100);index" json:"username"`
	FirstName    string `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string `gorm:"type:varchar(100)" json:"last_name"`
	PhotoURL     string `gorm:"type:varchar(500)" json:"photo_url,omitempty"`
	PasswordHash string `gorm:"type:varchar(255)" json:"-"`
	IsStaff      bool   `gorm:"default:false" json:"is_staff"`
	Status       string `gorm:"type:varchar(20);default:active" json:"status"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// DisplayName 展示名称：全名 > 用户名
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

// SetPassword 设置运营账号密码（哈希存储）
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword 验证运营账号密码
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive 检查账号是否可用
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// SellerRating 卖家评分，同一买家对同一卖家只保留一条
type SellerRating struct {
	BaseModel
	RaterID  string `gorm:"type:char(36);not null;uniqueIndex:uniq_rater_seller" json:"rater_id"`
	SellerID string `gorm:"type:char(36);index;not null;uniqueIndex:uniq_rater_seller" json:"seller_id"`
	Score    int    `gorm:"not null" json:"score"` // 1-5

	Rater  *User `gorm:"foreignKey:RaterID" json:"rater,omitempty"`
	Seller *User `gorm:"foreignKey:SellerID" json:"-"`
}

// TableName 指定表名
func (SellerRating) TableName() string {
	return "seller_ratings"
}
