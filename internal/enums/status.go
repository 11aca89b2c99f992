package enums

import (
	"sort"

	"opinions/internal/choice"
)

// Status 内容状态。原子状态可存储；组合状态只用于查询
type Status int

// 原子状态按 Ordinal 顺序声明
const (
	Draft Status = iota + 1
	Preview
	Published
	PendingReview
	UnderReview
	Withdrawn
	Acceptable
	Unacceptable
	Deleted

	All
	PrePublish
	ReviewInProgress
	Review
	ReviewOver
)

type statusInfo struct {
	arg     string
	display string
	members []Status // 仅组合状态，可嵌套组合状态
}

var statusTable = map[Status]statusInfo{
	Draft:         {arg: "draft", display: "Draft"},
	Preview:       {arg: "preview", display: "Preview"},
	Published:     {arg: "published", display: "Published"},
	PendingReview: {arg: "pending_review", display: "Pending Review"},
	UnderReview:   {arg: "under_review", display: "Under Review"},
	Withdrawn:     {arg: "withdrawn", display: "Withdrawn"},
	Acceptable:    {arg: "acceptable", display: "Acceptable"},
	Unacceptable:  {arg: "unacceptable", display: "Unacceptable"},
	Deleted:       {arg: "deleted", display: "Deleted"},

	All:              {arg: "all", display: "All", members: []Status{Published, PrePublish, Review}},
	PrePublish:       {arg: "pre_publish", display: "Pre-publish", members: []Status{Draft, Preview}},
	ReviewInProgress: {arg: "review_in_progress", display: "Review In Progress", members: []Status{PendingReview, UnderReview}},
	Review:           {arg: "review", display: "Review", members: []Status{Unacceptable, ReviewOver, ReviewInProgress}},
	ReviewOver:       {arg: "review_over", display: "Review Over", members: []Status{Withdrawn, Acceptable}},
}

var (
	// StatusVocabulary 包含全部原子与组合状态
	StatusVocabulary = choice.New(
		Draft, Preview, Published, PendingReview, UnderReview, Withdrawn, Acceptable, Unacceptable, Deleted,
		All, PrePublish, ReviewInProgress, Review, ReviewOver,
	)

	listings = buildListings()
)

func buildListings() map[Status][]Status {
	out := make(map[Status][]Status, len(statusTable))
	for s := range statusTable {
		seen := map[Status]bool{}
		expand(s, seen)
		atoms := make([]Status, 0, len(seen))
		for a := range seen {
			atoms = append(atoms, a)
		}
		sort.Slice(atoms, func(i, j int) bool { return atoms[i].Ordinal() < atoms[j].Ordinal() })
		out[s] = atoms
	}
	return out
}

func expand(s Status, seen map[Status]bool) {
	info := statusTable[s]
	if len(info.members) == 0 {
		seen[s] = true
		return
	}
	for _, m := range info.members {
		expand(m, seen)
	}
}

func (s Status) Arg() string     { return statusTable[s].arg }
func (s Status) Display() string { return statusTable[s].display }
func (s Status) String() string  { return s.Display() }

// IsComposite 组合状态不能作为存储值
func (s Status) IsComposite() bool {
	return len(statusTable[s].members) > 0
}

// Ordinal 原子状态的排序位置
func (s Status) Ordinal() int {
	return int(s)
}

// Listing 展开为原子状态集合，按 Ordinal 排序；原子状态返回自身
func (s Status) Listing() []Status {
	l := listings[s]
	out := make([]Status, len(l))
	copy(out, l)
	return out
}

// Contains 判断原子状态 a 是否在 s 的展开集合中
func (s Status) Contains(a Status) bool {
	for _, m := range listings[s] {
		if m == a {
			return true
		}
	}
	return false
}

// AtomicStatuses 返回所有可存储状态，用于初始化 statuses 表
func AtomicStatuses() []Status {
	out := make([]Status, 0, 9)
	for _, s := range StatusVocabulary.Entries() {
		if !s.IsComposite() {
			out = append(out, s)
		}
	}
	return out
}

// StatusFromName 由存储的状态名（display）还原原子状态
func StatusFromName(name string) (Status, bool) {
	s, ok := StatusVocabulary.FromDisplay(name)
	if !ok || s.IsComposite() {
		return 0, false
	}
	return s, true
}

// ReviewStatuses 可出现在审核记录上的状态
var ReviewStatuses = []Status{PendingReview, UnderReview, Withdrawn, Acceptable, Unacceptable}

// IsReviewStatus 由审核流程驱动的状态，作者无法直接设置
func (s Status) IsReviewStatus() bool {
	return Review.Contains(s)
}
