package search

import (
	"net/url"
	"strings"
)

// 入站查询参数名
const (
	KeySearch   = "search"
	KeyTitle    = "title"
	KeyContent  = "content"
	KeyAuthor   = "author"
	KeyCategory = "category"
	KeyStatus   = "status"
	KeyHidden   = "hidden"
	KeyPinned   = "pinned"

	KeyOnOrAfter  = "dtgte"
	KeyOnOrBefore = "dtlte"
	KeyAfter      = "dtgt"
	KeyBefore     = "dtlt"
	KeyOn         = "dteq"

	KeyOrder   = "order"
	KeyPage    = "page"
	KeyPerPage = "per-page"
)

// Value 单个参数值；Set 区分用户显式传入与默认值
type Value struct {
	Raw string
	Set bool
}

// RequestParams 一次列表请求的入站参数
type RequestParams map[string]Value

// Criterion 被解析（或解析失败）的单个条件，用于回显
type Criterion struct {
	Key      string `json:"key"`
	RawValue string `json:"value"`
}

// FromQuery 从 URL 查询串构造参数，空白值视为未传
func FromQuery(values url.Values) RequestParams {
	p := RequestParams{}
	for key, vs := range values {
		if len(vs) == 0 {
			continue
		}
		raw := strings.TrimSpace(vs[0])
		if raw == "" {
			continue
		}
		p[strings.ToLower(key)] = Value{Raw: raw, Set: true}
	}
	return p
}

// With 返回附加了默认值的副本，已显式设置的键保持不变
func (p RequestParams) With(key, raw string) RequestParams {
	out := make(RequestParams, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	if _, ok := out[key]; !ok {
		out[key] = Value{Raw: raw}
	}
	return out
}

// Get 返回显式设置的值
func (p RequestParams) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || !v.Set {
		return "", false
	}
	return v.Raw, true
}
