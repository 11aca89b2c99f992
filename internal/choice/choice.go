package choice

import (
	"fmt"
	"strings"
)

// Entry 是一个封闭词表中的成员：Arg 为外部传入的稳定 token，Display 为展示/存储用标签
type Entry interface {
	comparable
	Arg() string
	Display() string
}

// Vocabulary 封闭词表，构造后只读，可被多个请求并发使用
type Vocabulary[E Entry] struct {
	entries   []E
	byArg     map[string]E
	byDisplay map[string]E
}

// New 构造词表。arg 或 display 重复时 panic，词表都是静态定义的
func New[E Entry](entries ...E) *Vocabulary[E] {
	v := &Vocabulary[E]{
		entries:   make([]E, 0, len(entries)),
		byArg:     make(map[string]E, len(entries)),
		byDisplay: make(map[string]E, len(entries)),
	}
	for _, e := range entries {
		arg := strings.ToLower(e.Arg())
		display := strings.ToLower(e.Display())
		if _, dup := v.byArg[arg]; dup {
			panic(fmt.Sprintf("choice: duplicate arg %q", e.Arg()))
		}
		if _, dup := v.byDisplay[display]; dup {
			panic(fmt.Sprintf("choice: duplicate display %q", e.Display()))
		}
		v.byArg[arg] = e
		v.byDisplay[display] = e
		v.entries = append(v.entries, e)
	}
	return v
}

// Entries 按定义顺序返回所有成员
func (v *Vocabulary[E]) Entries() []E {
	out := make([]E, len(v.entries))
	copy(out, v.entries)
	return out
}

// FromArg 按 arg 精确查找，大小写不敏感
func (v *Vocabulary[E]) FromArg(token string) (E, bool) {
	e, ok := v.byArg[strings.ToLower(token)]
	return e, ok
}

// FromDisplay 按 display 精确查找，大小写不敏感
func (v *Vocabulary[E]) FromDisplay(text string) (E, bool) {
	e, ok := v.byDisplay[strings.ToLower(text)]
	return e, ok
}

// FuzzyMatchDisplay 返回 display 包含 partial 的候选项（大小写不敏感），顺序同候选集。
// candidates 为 nil 时在整个词表中匹配。
func (v *Vocabulary[E]) FuzzyMatchDisplay(partial string, candidates []E) []E {
	if candidates == nil {
		candidates = v.entries
	}
	needle := strings.ToLower(partial)
	var out []E
	for _, e := range candidates {
		if strings.Contains(strings.ToLower(e.Display()), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Args 返回所有 arg token，用于错误提示
func (v *Vocabulary[E]) Args() []string {
	out := make([]string, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.Arg()
	}
	return out
}
