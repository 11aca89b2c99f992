package models

import (
	"time"

	"opinions/internal/enums"
)

// AgreementRecord 赞同/反对，每个用户每条内容一条，原地更新
type AgreementRecord struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_agree_user_opinion;uniqueIndex:idx_agree_user_comment" json:"user_id"`
	OpinionID *uint           `gorm:"index;uniqueIndex:idx_agree_user_opinion" json:"opinion_id"`
	CommentID *uint           `gorm:"index;uniqueIndex:idx_agree_user_comment" json:"comment_id"`
	Status    enums.Agreement `gorm:"size:16;not null" json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (a *AgreementRecord) Ref() ContentRef { return refOf(a.OpinionID, a.CommentID) }
