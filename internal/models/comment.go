package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OpinionID uint      `gorm:"not null;index" json:"opinion_id"`
	Opinion   Opinion   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID  *uint     `gorm:"index" json:"parent_id"` // 顶级评论为 nil
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Level     int       `gorm:"not null;default:0" json:"level"`
	StatusID  uint      `gorm:"not null;index" json:"-"`
	Status    Status    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"status"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Published time.Time `gorm:"not null;index" json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) IsPublished() bool {
	return c.Published.Before(NeverDate)
}
