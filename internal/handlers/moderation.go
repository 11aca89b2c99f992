package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/search"
	"opinions/internal/services"
	"opinions/internal/utils"
)

type ModerationHandler struct {
	reviews *services.ReviewService
	perPage int
	log     zerolog.Logger
}

func NewModerationHandler(reviews *services.ReviewService, perPage int, log zerolog.Logger) *ModerationHandler {
	if perPage <= 0 {
		perPage = enums.DefaultPerPage
	}
	return &ModerationHandler{reviews: reviews, perPage: perPage, log: log}
}

// Queue 审核队列，status 默认为审核中（待审 + 审核中），取值规则与列表的 status 条件相同
func (h *ModerationHandler) Queue(c *gin.Context) {
	statuses := []enums.Status{enums.ReviewInProgress}
	if arg := c.Query(search.KeyStatus); arg != "" {
		statuses = search.MatchStatuses(arg)
		if len(statuses) == 0 {
			BadRequest(c, "unknown status "+arg)
			return
		}
	}
	page := utils.StringToInt(c.DefaultQuery(search.KeyPage, "1"))
	perPage := utils.StringToInt(c.DefaultQuery(search.KeyPerPage, "0"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = h.perPage
	}

	records, total, err := h.reviews.Queue(c.Request.Context(), statuses, page, perPage)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	args := make([]string, len(statuses))
	for i, s := range statuses {
		args[i] = s.Arg()
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    records,
		"total":    total,
		"page":     page,
		"per_page": perPage,
		"status":   args,
	})
}

// History 内容的全部审核记录
func (h *ModerationHandler) History(c *gin.Context) {
	ref, ok := refParam(c)
	if !ok {
		return
	}
	records, err := h.reviews.History(c.Request.Context(), ref)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// Assign 审核员认领
func (h *ModerationHandler) Assign(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.reviews.Assign(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type decideRequest struct {
	Decision string `json:"decision" binding:"required"`
	Note     string `json:"note"`
}

// Decide 给出结论：acceptable / unacceptable / withdrawn
func (h *ModerationHandler) Decide(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	decision, ok := enums.StatusVocabulary.FromArg(req.Decision)
	if !ok {
		BadRequest(c, "unknown decision "+req.Decision)
		return
	}
	rec, err := h.reviews.Decide(c.Request.Context(), id, currentUserID(c), decision, req.Note)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Withdraw 举报人撤回自己的举报
func (h *ModerationHandler) Withdraw(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.reviews.Withdraw(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
