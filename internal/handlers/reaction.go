package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"opinions/internal/services"
)

type ReactionHandler struct {
	reactions *services.ReactionService
	reviews   *services.ReviewService
	log       zerolog.Logger
}

func NewReactionHandler(reactions *services.ReactionService, reviews *services.ReviewService, log zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, reviews: reviews, log: log}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// React 赞同/反对/隐藏/置顶/关注等互动，返回最新互动状态
func (h *ReactionHandler) React(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}
	reaction, ok := h.reactions.Config().Parse(c.Param("reaction"))
	if !ok {
		BadRequest(c, "unknown reaction "+c.Param("reaction"))
		return
	}
	var req reasonRequest
	// 只有举报需要 reason，请求体可以为空
	_ = c.ShouldBindJSON(&req)

	state, err := h.reactions.React(c.Request.Context(), ref, currentUserID(c), reaction, req.Reason)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Report 举报内容，返回新建的审核记录
func (h *ReactionHandler) Report(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}
	var req reasonRequest
	_ = c.ShouldBindJSON(&req)

	rec, err := h.reviews.Report(c.Request.Context(), ref, currentUserID(c), req.Reason)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
