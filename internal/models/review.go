package models

import (
	"time"

	"opinions/internal/enums"
)

// ReviewRecord 审核记录，只追加不修改；每条 (内容, 举报人) 链上至多一条 IsCurrent
type ReviewRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OpinionID   *uint     `gorm:"index;uniqueIndex:idx_review_current_opinion,where:is_current = true" json:"opinion_id"`
	CommentID   *uint     `gorm:"index;uniqueIndex:idx_review_current_comment,where:is_current = true" json:"comment_id"`
	RequesterID uint      `gorm:"not null;index;uniqueIndex:idx_review_current_opinion,where:is_current = true;uniqueIndex:idx_review_current_comment,where:is_current = true" json:"requester_id"`
	Requester   User      `gorm:"foreignKey:RequesterID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Reason      string    `gorm:"size:500;not null" json:"reason"`
	ReviewerID  *uint     `gorm:"index" json:"reviewer_id"`
	Reviewer    *User     `gorm:"foreignKey:ReviewerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	StatusID    uint      `gorm:"not null;index" json:"-"`
	Status      Status    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"status"`
	IsCurrent   bool      `gorm:"not null;index" json:"is_current"`
	Resolved    time.Time `gorm:"not null" json:"resolved"` // 未结案为 NeverDate
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ref 被审核的内容
func (r *ReviewRecord) Ref() ContentRef {
	return refOf(r.OpinionID, r.CommentID)
}

func (r *ReviewRecord) Lineage() Lineage {
	return Lineage{Content: r.Ref(), RequesterID: r.RequesterID}
}

// State 记录上的审核状态
func (r *ReviewRecord) State() enums.Status {
	return r.Status.State()
}

func (r *ReviewRecord) IsResolved() bool {
	return r.Resolved.Before(NeverDate)
}
