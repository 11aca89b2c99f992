package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/search"
	"opinions/internal/services"
	"opinions/internal/utils"
)

const summaryLength = 140

type OpinionHandler struct {
	content    *services.ContentService
	listing    *services.ListingService
	reactions  *services.ReactionService
	reviews    *services.ReviewService
	visibility *services.VisibilityResolver
	log        zerolog.Logger
}

func NewOpinionHandler(
	content *services.ContentService,
	listing *services.ListingService,
	reactions *services.ReactionService,
	reviews *services.ReviewService,
	visibility *services.VisibilityResolver,
	log zerolog.Logger,
) *OpinionHandler {
	return &OpinionHandler{
		content:    content,
		listing:    listing,
		reactions:  reactions,
		reviews:    reviews,
		visibility: visibility,
		log:        log,
	}
}

// List 观点列表，查询参数见 search 包
func (h *OpinionHandler) List(c *gin.Context) {
	page, err := h.listing.Opinions(c.Request.Context(), search.FromQuery(c.Request.URL.Query()), viewerOf(c))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListComments 评论列表，opinion=<pid> 限定在某个观点下
func (h *OpinionHandler) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	values := c.Request.URL.Query()
	var opinionID uint
	if pid := values.Get("opinion"); pid != "" {
		o, err := h.content.OpinionByPid(ctx, pid)
		if err != nil {
			RenderError(c, h.log, err)
			return
		}
		opinionID = o.ID
		values.Del("opinion")
	}
	page, err := h.listing.Comments(ctx, opinionID, search.FromQuery(values), viewerOf(c))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Detail 观点详情：渲染后的正文、互动状态与首页评论
func (h *OpinionHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := viewerOf(c)

	o, err := h.content.OpinionByPid(ctx, c.Param("pid"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	ref := models.OpinionRef(o.ID)
	v, err := h.visibility.Resolve(ctx, ref, viewer.ID, true)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	v = services.SkipForAuthor(v, o.UserID, viewer.ID)

	// 草稿与被举报的内容只对作者和审核员可见
	owner := o.UserID == viewer.ID
	if !owner && !viewer.Moderator && (!v.Viewable || !publiclyListed(o.Status.State())) {
		RenderError(c, h.log, models.NotFoundError{Resource: "opinion"})
		return
	}

	state, err := h.reactions.State(ctx, ref, viewer.ID)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	comments, err := h.listing.Comments(ctx, o.ID, search.FromQuery(c.Request.URL.Query()), viewer)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	o.CommentCount = int(comments.Total)

	resp := gin.H{
		"opinion":    o,
		"html":       string(utils.RenderMarkdown(o.Content)),
		"summary":    utils.Summary(o.Content, summaryLength),
		"visibility": v,
		"reactions":  state,
		"comments":   comments,
	}
	if viewer.Moderator {
		history, err := h.reviews.History(ctx, ref)
		if err != nil {
			RenderError(c, h.log, err)
			return
		}
		resp["reviews"] = history
	}
	c.JSON(http.StatusOK, resp)
}

type createOpinionRequest struct {
	Title      string   `json:"title" binding:"required"`
	Content    string   `json:"content" binding:"required"`
	Categories []string `json:"categories"`
	Publish    bool     `json:"publish"`
}

// Create 新建观点，publish 为 true 时直接发布
func (h *OpinionHandler) Create(c *gin.Context) {
	var req createOpinionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := currentUserID(c)

	o, err := h.content.CreateOpinion(ctx, userID, req.Title, req.Content, req.Categories)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if req.Publish {
		if err := h.content.Publish(ctx, models.OpinionRef(o.ID), userID); err != nil {
			RenderError(c, h.log, err)
			return
		}
	}
	o, err = h.content.OpinionByPid(ctx, o.Pid)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus 作者修改观点状态（草稿、预览、发布、删除）
func (h *OpinionHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	target, ok := enums.StatusVocabulary.FromArg(req.Status)
	if !ok {
		BadRequest(c, "unknown status "+req.Status)
		return
	}
	ctx := c.Request.Context()
	o, err := h.content.OpinionByPid(ctx, c.Param("pid"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if err := h.content.SetStatus(ctx, models.OpinionRef(o.ID), currentUserID(c), target); err != nil {
		RenderError(c, h.log, err)
		return
	}
	if target == enums.Deleted {
		c.Status(http.StatusNoContent)
		return
	}
	o, err = h.content.OpinionByPid(ctx, o.Pid)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
	Publish  bool   `json:"publish"`
}

// CreateComment 发表评论或回复
func (h *OpinionHandler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	userID := currentUserID(c)

	o, err := h.content.OpinionByPid(ctx, c.Param("pid"))
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	comment, err := h.content.CreateComment(ctx, userID, o.ID, req.ParentID, req.Content)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	if req.Publish {
		if err := h.content.Publish(ctx, models.CommentRef(comment.ID), userID); err != nil {
			RenderError(c, h.log, err)
			return
		}
	}
	comment, err = h.content.Comment(ctx, comment.ID)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// SetCommentStatus 作者修改评论状态
func (h *OpinionHandler) SetCommentStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	target, ok := enums.StatusVocabulary.FromArg(req.Status)
	if !ok {
		BadRequest(c, "unknown status "+req.Status)
		return
	}
	ctx := c.Request.Context()
	if err := h.content.SetStatus(ctx, models.CommentRef(id), currentUserID(c), target); err != nil {
		RenderError(c, h.log, err)
		return
	}
	if target == enums.Deleted {
		c.Status(http.StatusNoContent)
		return
	}
	comment, err := h.content.Comment(ctx, id)
	if err != nil {
		RenderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func publiclyListed(s enums.Status) bool {
	for _, p := range services.PublicStatuses {
		if p.Contains(s) {
			return true
		}
	}
	return false
}
