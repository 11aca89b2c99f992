package services

import (
	"github.com/pkg/errors"

	"opinions/internal/models"
)

// 状态违规，调用方据此返回明确的错误码
var (
	ErrAlreadyUnderReview = errors.New("content already has an open review from this requester")
	ErrNotInReview        = errors.New("no open review for this content and requester")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrNotRequester       = errors.New("only the requester can withdraw a review")
	ErrNotAuthor          = errors.New("only the author can change this content")
	ErrReactionNotAllowed = errors.New("reaction not allowed for this content")
	ErrInvalidContent     = errors.New("content is missing required fields")

	ErrConcurrentTransition = models.ErrConcurrentTransition
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrAlreadyUnderReview, "already_under_review"},
	{ErrNotInReview, "not_in_review"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrNotRequester, "not_requester"},
	{ErrNotAuthor, "not_author"},
	{ErrReactionNotAllowed, "reaction_not_allowed"},
	{ErrInvalidContent, "invalid_content"},
	{ErrConcurrentTransition, "concurrent_transition"},
	{models.ErrNotFound, "not_found"},
}

// ErrorCode 把错误映射为稳定的错误码，未知错误为 internal
func ErrorCode(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
