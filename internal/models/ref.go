package models

import (
	"fmt"

	"opinions/internal/enums"
)

// ContentRef 指向一条观点或评论
type ContentRef struct {
	Kind enums.ContentKind
	ID   uint
}

func OpinionRef(id uint) ContentRef { return ContentRef{Kind: enums.KindOpinion, ID: id} }
func CommentRef(id uint) ContentRef { return ContentRef{Kind: enums.KindComment, ID: id} }

func (r ContentRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Target 拆成 (opinion_id, comment_id) 两列，恰好一个非空
func (r ContentRef) Target() (opinionID, commentID *uint) {
	id := r.ID
	if r.Kind == enums.KindComment {
		return nil, &id
	}
	return &id, nil
}

func refOf(opinionID, commentID *uint) ContentRef {
	if commentID != nil {
		return CommentRef(*commentID)
	}
	if opinionID != nil {
		return OpinionRef(*opinionID)
	}
	return ContentRef{}
}

// Lineage 同一内容、同一举报人的审核记录链
type Lineage struct {
	Content     ContentRef
	RequesterID uint
}
