package enums

import (
	"opinions/internal/choice"
	"opinions/internal/query"
)

// SortOrder 列表排序方式
type SortOrder struct {
	arg     string
	display string
	order   query.Order
}

func (o SortOrder) Arg() string        { return o.arg }
func (o SortOrder) Display() string    { return o.display }
func (o SortOrder) Order() query.Order { return o.order }

var (
	OrderNewest        = SortOrder{"newest", "Newest", query.Order{Field: query.FieldCreated, Desc: true}}
	OrderOldest        = SortOrder{"oldest", "Oldest", query.Order{Field: query.FieldCreated}}
	OrderTitleAsc      = SortOrder{"title", "Title A-Z", query.Order{Field: query.FieldTitle}}
	OrderTitleDesc     = SortOrder{"-title", "Title Z-A", query.Order{Field: query.FieldTitle, Desc: true}}
	OrderAuthorAsc     = SortOrder{"author", "Author A-Z", query.Order{Field: query.FieldAuthor}}
	OrderAuthorDesc    = SortOrder{"-author", "Author Z-A", query.Order{Field: query.FieldAuthor, Desc: true}}
	OrderUpdatedNewest = SortOrder{"updated", "Recently updated", query.Order{Field: query.FieldUpdated, Desc: true}}
	OrderUpdatedOldest = SortOrder{"-updated", "Least recently updated", query.Order{Field: query.FieldUpdated}}
	OrderPublishedNew  = SortOrder{"published", "Recently published", query.Order{Field: query.FieldPublished, Desc: true}}
	OrderPublishedOld  = SortOrder{"-published", "First published", query.Order{Field: query.FieldPublished}}

	OrderVocabulary = choice.New(
		OrderNewest, OrderOldest, OrderTitleAsc, OrderTitleDesc, OrderAuthorAsc, OrderAuthorDesc,
		OrderUpdatedNewest, OrderUpdatedOldest, OrderPublishedNew, OrderPublishedOld,
	)

	// CommentOrderVocabulary 评论没有标题
	CommentOrderVocabulary = choice.New(
		OrderNewest, OrderOldest, OrderAuthorAsc, OrderAuthorDesc,
		OrderUpdatedNewest, OrderUpdatedOldest, OrderPublishedNew, OrderPublishedOld,
	)
)

// PerPageChoices 每页条数可选值
var PerPageChoices = []int{5, 10, 20, 50}

const DefaultPerPage = 10
