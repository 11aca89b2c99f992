package enums

import "opinions/internal/choice"

// ContentKind 被审核/互动的内容类型
type ContentKind int

const (
	KindOpinion ContentKind = iota + 1
	KindComment
)

var kindArgs = map[ContentKind]string{
	KindOpinion: "opinion",
	KindComment: "comment",
}

func (k ContentKind) String() string { return kindArgs[k] }

// ParseContentKind 解析路由中的 :type
func ParseContentKind(s string) (ContentKind, bool) {
	for k, arg := range kindArgs {
		if arg == s {
			return k, true
		}
	}
	return 0, false
}

// Presence 隐藏/置顶过滤的取值
type Presence int

const (
	PresenceYes Presence = iota + 1
	PresenceNo
	PresenceIgnore
)

// PresenceChoice 绑定了展示文案的 Presence，hidden 与 pinned 各有一套
type PresenceChoice struct {
	Presence Presence
	arg      string
	display  string
}

func (c PresenceChoice) Arg() string     { return c.arg }
func (c PresenceChoice) Display() string { return c.display }

var (
	HiddenYes    = PresenceChoice{PresenceYes, "yes", "Hidden"}
	HiddenNo     = PresenceChoice{PresenceNo, "no", "Visible"}
	HiddenIgnore = PresenceChoice{PresenceIgnore, "ignore", "Ignore"}

	PinnedYes    = PresenceChoice{PresenceYes, "yes", "Pinned"}
	PinnedNo     = PresenceChoice{PresenceNo, "no", "Unpinned"}
	PinnedIgnore = PresenceChoice{PresenceIgnore, "ignore", "Ignore"}

	HiddenVocabulary = choice.New(HiddenYes, HiddenNo, HiddenIgnore)
	PinnedVocabulary = choice.New(PinnedYes, PinnedNo, PinnedIgnore)
)
