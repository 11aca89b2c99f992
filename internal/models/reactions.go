package models

import (
	"time"
)

// HideRecord 用户隐藏某条内容，记录存在即为隐藏
type HideRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_hide_user_opinion;uniqueIndex:idx_hide_user_comment" json:"user_id"`
	OpinionID *uint     `gorm:"index;uniqueIndex:idx_hide_user_opinion" json:"opinion_id"`
	CommentID *uint     `gorm:"index;uniqueIndex:idx_hide_user_comment" json:"comment_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PinRecord 用户置顶某条内容
type PinRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_pin_user_opinion;uniqueIndex:idx_pin_user_comment" json:"user_id"`
	OpinionID *uint     `gorm:"index;uniqueIndex:idx_pin_user_opinion" json:"opinion_id"`
	CommentID *uint     `gorm:"index;uniqueIndex:idx_pin_user_comment" json:"comment_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FollowRecord 用户关注某位作者
type FollowRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index;uniqueIndex:idx_follow_user_author" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ref 被隐藏的内容
func (h *HideRecord) Ref() ContentRef { return refOf(h.OpinionID, h.CommentID) }

// Ref 被置顶的内容
func (p *PinRecord) Ref() ContentRef { return refOf(p.OpinionID, p.CommentID) }
