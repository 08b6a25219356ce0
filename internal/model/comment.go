package model

import "time"

// Comment 商品评论
// 与 Product 走同一套审核/可见性/归档流程
type Comment struct {
	BaseModel
	ProductID string        `gorm:"type:char(36);index;not null" json:"product_id"`
	AuthorID  string        `gorm:"type:char(36);index;not null" json:"author_id"`
	Text      string        `gorm:"type:varchar(1000);not null" json:"text"`
	Status    ContentStatus `gorm:"default:0;index" json:"status"`

	Author  *User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}

// ContentID 实现 Content 接口
func (c *Comment) ContentID() string { return c.ID }

// ContentAuthorID 实现 Content 接口
func (c *Comment) ContentAuthorID() string { return c.AuthorID }

// ContentStatus 实现 Content 接口
func (c *Comment) ContentStatus() ContentStatus { return c.Status }

// ModerationText 送审文本：评论正文
func (c *Comment) ModerationText() string { return c.Text }

// ContentUpdatedAt 实现 Content 接口
func (c *Comment) ContentUpdatedAt() time.Time { return c.UpdatedAt }
