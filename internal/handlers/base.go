package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/middleware"
	"opinions/internal/models"
	"opinions/internal/services"
	"opinions/internal/utils"
)

// 错误码对应的 HTTP 状态
var errorStatus = map[string]int{
	"not_found":             http.StatusNotFound,
	"not_author":            http.StatusForbidden,
	"not_requester":         http.StatusForbidden,
	"already_under_review":  http.StatusConflict,
	"not_in_review":         http.StatusConflict,
	"invalid_transition":    http.StatusConflict,
	"concurrent_transition": http.StatusConflict,
	"reaction_not_allowed":  http.StatusBadRequest,
	"invalid_content":       http.StatusBadRequest,
}

// RenderError 按错误码输出 JSON，未知错误记日志并返回 500
func RenderError(c *gin.Context, log zerolog.Logger, err error) {
	code := services.ErrorCode(err)
	status, ok := errorStatus[code]
	if !ok {
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": code})
		return
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": message})
}

// viewerOf 当前请求的查看者，未登录为匿名
func viewerOf(c *gin.Context) services.Viewer {
	user := middleware.CurrentUser(c)
	if user == nil {
		return services.Viewer{}
	}
	return services.Viewer{ID: user.ID, Moderator: user.CanModerate()}
}

func currentUserID(c *gin.Context) uint {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

// idParam 解析路径中的数字 ID，失败时已写入响应
func idParam(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		BadRequest(c, "invalid "+name)
	}
	return id, ok
}

// refParam 解析 /:type/:id
func refParam(c *gin.Context) (models.ContentRef, bool) {
	kind, ok := enums.ParseContentKind(c.Param("type"))
	if !ok {
		BadRequest(c, "invalid content type")
		return models.ContentRef{}, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return models.ContentRef{}, false
	}
	return models.ContentRef{Kind: kind, ID: id}, true
}
