package query

import "sort"

// Accessor 读取某类记录的字段值
type Accessor[T any] func(item T, f Field) (any, bool)

// Order 排序字段与方向
type Order struct {
	Field Field
	Desc  bool
}

// Slice 内存集合，测试和开发模式使用
type Slice[T any] struct {
	items  []T
	access Accessor[T]
}

func NewSlice[T any](items []T, access Accessor[T]) *Slice[T] {
	return &Slice[T]{items: items, access: access}
}

func (s *Slice[T]) Filter(p Predicate) Collection {
	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		item := item
		if Evaluate(p, func(f Field) (any, bool) { return s.access(item, f) }) {
			out = append(out, item)
		}
	}
	return &Slice[T]{items: out, access: s.access}
}

func (s *Slice[T]) None() Collection {
	return &Slice[T]{access: s.access}
}

// Items 返回当前元素（共享底层数组，只读使用）
func (s *Slice[T]) Items() []T {
	return s.items
}

func (s *Slice[T]) Len() int {
	return len(s.items)
}

// Fetch 排序并分页，返回当前页与总数。相等时按 id 降序保持稳定
func (s *Slice[T]) Fetch(order Order, offset, limit int) ([]T, int64, error) {
	sorted := make([]T, len(s.items))
	copy(sorted, s.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := s.compare(sorted[i], sorted[j], order.Field)
		if c == 0 {
			return s.compare(sorted[i], sorted[j], FieldID) > 0
		}
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
	total := int64(len(sorted))
	if offset >= len(sorted) {
		return []T{}, total, nil
	}
	end := len(sorted)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return sorted[offset:end], total, nil
}

func (s *Slice[T]) compare(a, b T, f Field) int {
	av, _ := s.access(a, f)
	bv, _ := s.access(b, f)
	return CompareValues(av, bv)
}
