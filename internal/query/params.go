package query

// Collection 可被谓词收窄的内容集合。实现需保证 Filter/None 不修改接收者
type Collection interface {
	Filter(p Predicate) Collection
	None() Collection
}

// Filter 无法用字段比较表达的过滤，例如按预先计算的 id 集合
type Filter func(c Collection) Collection

// Params 单次请求内累积查询条件，不可跨请求共享
type Params struct {
	and       []Predicate
	or        Or
	filters   []Filter
	inclusive int
	none      bool
	applied   map[string]struct{}
}

func NewParams() *Params {
	return &Params{applied: make(map[string]struct{})}
}

// AddAndTerm 追加必须成立的条件
func (p *Params) AddAndTerm(key string, pred Predicate) {
	p.and = append(p.and, pred)
	p.mark(key)
}

// AddOrTerm 追加到唯一的 OR 组，整个组再与其余条件 AND
func (p *Params) AddOrTerm(key string, pred Predicate) {
	p.or = append(p.or, pred)
	p.mark(key)
}

// AddCustomFilter 追加自定义过滤，Apply 时按注册顺序执行
func (p *Params) AddCustomFilter(key string, f Filter) {
	p.filters = append(p.filters, f)
	p.mark(key)
}

// MarkAllInclusive 记录一个不收窄结果但算作“已设置”的条件
func (p *Params) MarkAllInclusive(key string) {
	p.inclusive++
	p.mark(key)
}

// MarkEmpty 强制结果为空集
func (p *Params) MarkEmpty() {
	p.none = true
}

func (p *Params) mark(key string) {
	if key != "" {
		p.applied[key] = struct{}{}
	}
}

// IsEmpty 没有任何条件（包括全包含标记），调用方据此决定是否返回全部
func (p *Params) IsEmpty() bool {
	return !p.none && len(p.and) == 0 && len(p.or) == 0 && len(p.filters) == 0 && p.inclusive == 0
}

// IsNone 结果必为空集
func (p *Params) IsNone() bool {
	return p.none
}

// WasApplied 某个 key 是否已贡献过条件
func (p *Params) WasApplied(key string) bool {
	_, ok := p.applied[key]
	return ok
}

// Predicate 合成 AND 条件与 OR 组；无条件时返回 nil
func (p *Params) Predicate() Predicate {
	parts := make(And, 0, len(p.and)+1)
	parts = append(parts, p.and...)
	if len(p.or) > 0 {
		parts = append(parts, p.or)
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return parts
}

// Apply 作用到集合上：none 直接返回空集，否则先谓词后自定义过滤
func (p *Params) Apply(c Collection) Collection {
	if p.none {
		return c.None()
	}
	if pred := p.Predicate(); pred != nil {
		c = c.Filter(pred)
	}
	for _, f := range p.filters {
		c = f(c)
	}
	return c
}
