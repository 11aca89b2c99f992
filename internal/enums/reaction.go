package enums

import "opinions/internal/choice"

// Reaction 用户对内容的互动
type Reaction int

const (
	ReactionAgree Reaction = iota + 1
	ReactionDisagree
	ReactionHide
	ReactionShow
	ReactionPin
	ReactionUnpin
	ReactionFollow
	ReactionUnfollow
	ReactionReport
)

var reactionTable = map[Reaction][2]string{
	ReactionAgree:    {"agree", "Agree"},
	ReactionDisagree: {"disagree", "Disagree"},
	ReactionHide:     {"hide", "Hide"},
	ReactionShow:     {"show", "Show"},
	ReactionPin:      {"pin", "Pin"},
	ReactionUnpin:    {"unpin", "Unpin"},
	ReactionFollow:   {"follow", "Follow author"},
	ReactionUnfollow: {"unfollow", "Unfollow author"},
	ReactionReport:   {"report", "Report"},
}

func (r Reaction) Arg() string     { return reactionTable[r][0] }
func (r Reaction) Display() string { return reactionTable[r][1] }

// Agreement 赞同/反对，存储在 AgreementRecord.Status
type Agreement string

const (
	AgreementNone     Agreement = ""
	AgreementAgree    Agreement = "agree"
	AgreementDisagree Agreement = "disagree"
)

// ReactionConfig 互动配置：词表与每种内容允许的互动。启动时构造一次，只读传递
type ReactionConfig struct {
	vocabulary *choice.Vocabulary[Reaction]
	allowed    map[ContentKind][]Reaction
}

func NewReactionConfig() *ReactionConfig {
	return &ReactionConfig{
		vocabulary: choice.New(
			ReactionAgree, ReactionDisagree, ReactionHide, ReactionShow, ReactionPin,
			ReactionUnpin, ReactionFollow, ReactionUnfollow, ReactionReport,
		),
		allowed: map[ContentKind][]Reaction{
			KindOpinion: {
				ReactionAgree, ReactionDisagree, ReactionHide, ReactionShow, ReactionPin,
				ReactionUnpin, ReactionFollow, ReactionUnfollow, ReactionReport,
			},
			KindComment: {
				ReactionAgree, ReactionDisagree, ReactionHide, ReactionShow, ReactionPin,
				ReactionUnpin, ReactionReport,
			},
		},
	}
}

// Parse 解析路由中的互动 token
func (c *ReactionConfig) Parse(arg string) (Reaction, bool) {
	return c.vocabulary.FromArg(arg)
}

// Allowed 某类内容是否支持该互动
func (c *ReactionConfig) Allowed(kind ContentKind, r Reaction) bool {
	for _, a := range c.allowed[kind] {
		if a == r {
			return true
		}
	}
	return false
}

// For 返回某类内容支持的互动，按展示顺序
func (c *ReactionConfig) For(kind ContentKind) []Reaction {
	out := make([]Reaction, len(c.allowed[kind]))
	copy(out, c.allowed[kind])
	return out
}
