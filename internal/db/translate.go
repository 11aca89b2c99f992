package db

import (
	"fmt"
	"strings"

	"opinions/internal/enums"
	"opinions/internal/query"
)

// Column 字段在 SQL 中的写法。Via 非空时条件先作用在 Expr 上，再用 Via 包成子查询
type Column struct {
	Expr string
	Via  string // 含一个 %s，例如 "user_id IN (SELECT id FROM users WHERE %s)"
	Text bool   // 字符串比较大小写不敏感
	Sort string // 排序表达式，空则不可排序
}

// ColumnMap 一类内容的字段映射
type ColumnMap map[query.Field]Column

var OpinionColumns = ColumnMap{
	query.FieldID:      {Expr: "opinions.id", Sort: "opinions.id"},
	query.FieldTitle:   {Expr: "opinions.title", Text: true, Sort: "LOWER(opinions.title)"},
	query.FieldContent: {Expr: "opinions.content", Text: true},
	query.FieldAuthor: {
		Expr: "users.username",
		Via:  "opinions.user_id IN (SELECT users.id FROM users WHERE %s)",
		Text: true,
		Sort: "(SELECT LOWER(users.username) FROM users WHERE users.id = opinions.user_id)",
	},
	query.FieldCategory: {
		Expr: "categories.name",
		Via: "opinions.id IN (SELECT opinion_categories.opinion_id FROM opinion_categories " +
			"JOIN categories ON categories.id = opinion_categories.category_id WHERE %s)",
		Text: true,
	},
	query.FieldStatus: {
		Expr: "statuses.name",
		Via:  "opinions.status_id IN (SELECT statuses.id FROM statuses WHERE %s)",
	},
	query.FieldPublished: {Expr: "opinions.published", Sort: "opinions.published"},
	query.FieldCreated:   {Expr: "opinions.created_at", Sort: "opinions.created_at"},
	query.FieldUpdated:   {Expr: "opinions.updated_at", Sort: "opinions.updated_at"},
	query.FieldAuthorID:  {Expr: "opinions.user_id"},
}

var CommentColumns = ColumnMap{
	query.FieldID:      {Expr: "comments.id", Sort: "comments.id"},
	query.FieldContent: {Expr: "comments.content", Text: true},
	query.FieldAuthor: {
		Expr: "users.username",
		Via:  "comments.user_id IN (SELECT users.id FROM users WHERE %s)",
		Text: true,
		Sort: "(SELECT LOWER(users.username) FROM users WHERE users.id = comments.user_id)",
	},
	query.FieldStatus: {
		Expr: "statuses.name",
		Via:  "comments.status_id IN (SELECT statuses.id FROM statuses WHERE %s)",
	},
	query.FieldPublished: {Expr: "comments.published", Sort: "comments.published"},
	query.FieldCreated:   {Expr: "comments.created_at", Sort: "comments.created_at"},
	query.FieldUpdated:   {Expr: "comments.updated_at", Sort: "comments.updated_at"},
	query.FieldAuthorID:  {Expr: "comments.user_id"},
}

const (
	sqlTrue  = "1 = 1"
	sqlFalse = "1 = 0"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Translate 把谓词翻译为 WHERE 片段和参数。实体不支持的字段翻译为恒假，与内存求值一致
func (m ColumnMap) Translate(p query.Predicate) (string, []interface{}) {
	switch p := p.(type) {
	case nil:
		return sqlTrue, nil
	case query.Term:
		return m.term(p)
	case query.And:
		return m.join(p, " AND ", sqlTrue)
	case query.Or:
		return m.join(p, " OR ", sqlFalse)
	}
	return sqlFalse, nil
}

func (m ColumnMap) join(parts []query.Predicate, sep, empty string) (string, []interface{}) {
	if len(parts) == 0 {
		return empty, nil
	}
	sqls := make([]string, 0, len(parts))
	var args []interface{}
	for _, sub := range parts {
		s, a := m.Translate(sub)
		sqls = append(sqls, "("+s+")")
		args = append(args, a...)
	}
	return strings.Join(sqls, sep), args
}

func (m ColumnMap) term(t query.Term) (string, []interface{}) {
	col, ok := m[t.Field]
	if !ok {
		return sqlFalse, nil
	}

	var cond string
	var args []interface{}
	switch t.Op {
	case query.OpContains:
		s, _ := t.Value.(string)
		cond, args = col.Expr+" ILIKE ?", []interface{}{"%" + likeEscaper.Replace(s) + "%"}
	case query.OpEqual:
		if col.Text {
			cond = "LOWER(" + col.Expr + ") = LOWER(?)"
		} else {
			cond = col.Expr + " = ?"
		}
		args = []interface{}{sqlValue(t.Value)}
	case query.OpIn, query.OpNotIn:
		values, _ := t.Value.([]interface{})
		if len(values) == 0 {
			if t.Op == query.OpIn {
				return sqlFalse, nil
			}
			return sqlTrue, nil
		}
		converted := make([]interface{}, len(values))
		for i, v := range values {
			converted[i] = sqlValue(v)
		}
		op := " IN ?"
		if t.Op == query.OpNotIn {
			op = " NOT IN ?"
		}
		cond, args = col.Expr+op, []interface{}{converted}
	case query.OpDateEqual, query.OpDateAfter, query.OpDateOnOrAfter, query.OpDateBefore, query.OpDateOnOrBefore:
		d, ok := t.Value.(query.Date)
		if !ok {
			return sqlFalse, nil
		}
		cond, args = fmt.Sprintf("DATE(%s) %s ?", col.Expr, dateOperators[t.Op]), []interface{}{d.String()}
	default:
		return sqlFalse, nil
	}

	if col.Via != "" {
		cond = fmt.Sprintf(col.Via, cond)
	}
	return cond, args
}

var dateOperators = map[query.Op]string{
	query.OpDateEqual:      "=",
	query.OpDateAfter:      ">",
	query.OpDateOnOrAfter:  ">=",
	query.OpDateBefore:     "<",
	query.OpDateOnOrBefore: "<=",
}

// sqlValue 枚举按库中存储的形式传参
func sqlValue(v interface{}) interface{} {
	if s, ok := v.(enums.Status); ok {
		return s.Display()
	}
	return v
}

// OrderBy 排序子句，相同值按 id 降序
func (m ColumnMap) OrderBy(o query.Order) string {
	id := m[query.FieldID].Sort
	col, ok := m[o.Field]
	if !ok || col.Sort == "" {
		return id + " DESC"
	}
	dir := " ASC"
	if o.Desc {
		dir = " DESC"
	}
	if o.Field == query.FieldID {
		return id + dir
	}
	return col.Sort + dir + ", " + id + " DESC"
}
