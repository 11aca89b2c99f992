package query

import (
	"strings"
	"time"
)

// Getter 取出某条记录的字段值；ok=false 表示该实体不支持此字段
type Getter func(f Field) (any, bool)

// Evaluate 在内存中对单条记录求值
func Evaluate(p Predicate, get Getter) bool {
	switch p := p.(type) {
	case nil:
		return true
	case Term:
		return evalTerm(p, get)
	case And:
		for _, sub := range p {
			if !Evaluate(sub, get) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range p {
			if Evaluate(sub, get) {
				return true
			}
		}
		return false
	}
	return false
}

func evalTerm(t Term, get Getter) bool {
	v, ok := get(t.Field)
	if !ok {
		return false
	}
	switch t.Op {
	case OpContains:
		needle, _ := t.Value.(string)
		return containsFold(v, needle)
	case OpEqual:
		return equalValue(v, t.Value)
	case OpIn:
		return inValues(v, t.Value)
	case OpNotIn:
		return !inValues(v, t.Value)
	case OpDateEqual, OpDateAfter, OpDateOnOrAfter, OpDateBefore, OpDateOnOrBefore:
		ts, ok := v.(time.Time)
		target, ok2 := t.Value.(Date)
		if !ok || !ok2 {
			return false
		}
		c := DateOf(ts).Compare(target)
		switch t.Op {
		case OpDateEqual:
			return c == 0
		case OpDateAfter:
			return c > 0
		case OpDateOnOrAfter:
			return c >= 0
		case OpDateBefore:
			return c < 0
		default:
			return c <= 0
		}
	}
	return false
}

func containsFold(v any, needle string) bool {
	needle = strings.ToLower(needle)
	switch v := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(v), needle)
	case []string:
		for _, s := range v {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
	}
	return false
}

func equalValue(v, want any) bool {
	switch v := v.(type) {
	case string:
		w, ok := want.(string)
		return ok && strings.EqualFold(v, w)
	case []string:
		w, ok := want.(string)
		if !ok {
			return false
		}
		for _, s := range v {
			if strings.EqualFold(s, w) {
				return true
			}
		}
		return false
	}
	return v == want
}

func inValues(v, values any) bool {
	list, _ := values.([]any)
	for _, w := range list {
		if equalValue(v, w) {
			return true
		}
	}
	return false
}

// CompareValues 排序用比较，字符串大小写不敏感；类型不一致时视为相等
func CompareValues(a, b any) int {
	switch a := a.(type) {
	case string:
		if b, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(a), strings.ToLower(b))
		}
	case time.Time:
		if b, ok := b.(time.Time); ok {
			return a.Compare(b)
		}
	case uint:
		if b, ok := b.(uint); ok {
			return cmpInt(int(a), int(b))
		}
	case int:
		if b, ok := b.(int); ok {
			return cmpInt(a, b)
		}
	}
	return 0
}
