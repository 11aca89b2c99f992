package query

import (
	"fmt"
	"time"
)

// Field 可过滤/排序的内容字段
type Field int

const (
	FieldID Field = iota + 1
	FieldTitle
	FieldContent
	FieldAuthor
	FieldCategory
	FieldStatus
	FieldPublished
	FieldCreated
	FieldUpdated
	FieldAuthorID // 作者用户 ID，不对外作为搜索条件
)

var fieldNames = map[Field]string{
	FieldID:        "id",
	FieldTitle:     "title",
	FieldContent:   "content",
	FieldAuthor:    "author",
	FieldCategory:  "category",
	FieldStatus:    "status",
	FieldPublished: "published",
	FieldCreated:   "created",
	FieldUpdated:   "updated",
	FieldAuthorID:  "author_id",
}

func (f Field) String() string { return fieldNames[f] }

// Op 比较操作
type Op int

const (
	OpEqual Op = iota + 1
	OpIn
	OpNotIn
	OpContains // 大小写不敏感的子串匹配
	OpDateEqual
	OpDateAfter
	OpDateOnOrAfter
	OpDateBefore
	OpDateOnOrBefore
)

// Predicate 是 Term、And、Or 组成的表达式树
type Predicate interface {
	predicate()
}

// Term 单个字段比较。In/NotIn 的 Value 为 []any，日期比较的 Value 为 Date
type Term struct {
	Field Field
	Op    Op
	Value any
}

// And 全部成立；空 And 恒真
type And []Predicate

// Or 任一成立；空 Or 恒假
type Or []Predicate

func (Term) predicate() {}
func (And) predicate()  {}
func (Or) predicate()   {}

func (t Term) String() string {
	return fmt.Sprintf("%s %d %v", t.Field, t.Op, t.Value)
}

// Contains 构造子串匹配
func Contains(f Field, s string) Term {
	return Term{Field: f, Op: OpContains, Value: s}
}

// In 构造集合匹配
func In[T any](f Field, values ...T) Term {
	return Term{Field: f, Op: OpIn, Value: toAny(values)}
}

// NotIn 构造集合排除
func NotIn[T any](f Field, values ...T) Term {
	return Term{Field: f, Op: OpNotIn, Value: toAny(values)}
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Date 不含时间部分的日历日期
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf 取时间在其所在时区的日期部分
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time 返回当天 UTC 零点
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
