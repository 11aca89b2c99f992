package models

import (
	"time"
)

// NeverDate 未发布 / 未结案时使用的哨兵时间
var NeverDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

type Opinion struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Pid        string     `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	StatusID   uint       `gorm:"not null;index" json:"-"`
	Status     Status     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"status"`
	Categories []Category `gorm:"many2many:opinion_categories;" json:"categories"`
	Title      string     `gorm:"not null" json:"title"`
	Content    string     `gorm:"type:text" json:"content"`
	Published  time.Time  `gorm:"not null;index" json:"published"` // 首次发布时间，未发布为 NeverDate
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	CommentCount int `gorm:"-" json:"comment_count"`
}

// IsPublished 是否发布过
func (o *Opinion) IsPublished() bool {
	return o.Published.Before(NeverDate)
}

// CategoryNames 分类名列表
func (o *Opinion) CategoryNames() []string {
	names := make([]string, len(o.Categories))
	for i, c := range o.Categories {
		names[i] = c.Name
	}
	return names
}
