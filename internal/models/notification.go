package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeReportReceived NotificationType = "report_received" // 内容被举报
	NotificationTypeReviewDecided  NotificationType = "review_decided"  // 审核有结论
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"` // 接收者
	User      User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	ReviewID  uint             `gorm:"not null;index" json:"review_id"`
	Reason    string           `gorm:"type:text" json:"reason"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
