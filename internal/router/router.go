package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"opinions/internal/handlers"
	"opinions/internal/middleware"
	"opinions/internal/services"
)

// Deps 路由需要的服务
type Deps struct {
	Content       *services.ContentService
	Listing       *services.ListingService
	Reactions     *services.ReactionService
	Reviews       *services.ReviewService
	Visibility    *services.VisibilityResolver
	Notifications services.NotificationStore
	Gatherer      prometheus.Gatherer
	PerPage       int
	Log           zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	opinionHandler := handlers.NewOpinionHandler(d.Content, d.Listing, d.Reactions, d.Reviews, d.Visibility, d.Log)
	reactionHandler := handlers.NewReactionHandler(d.Reactions, d.Reviews, d.Log)
	moderationHandler := handlers.NewModerationHandler(d.Reviews, d.PerPage, d.Log)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications, d.Log)

	// 公共路由 (Public Routes)
	r.GET("/opinions", opinionHandler.List)         // 观点列表 / 搜索
	r.GET("/opinions/:pid", opinionHandler.Detail)  // 观点详情
	r.GET("/comments", opinionHandler.ListComments) // 评论列表
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/opinions", opinionHandler.Create)                      // 新建观点
		authorized.POST("/opinions/:pid/status", opinionHandler.SetStatus)       // 修改观点状态
		authorized.POST("/opinions/:pid/comments", opinionHandler.CreateComment) // 发表评论
		authorized.POST("/comments/:id/status", opinionHandler.SetCommentStatus) // 修改评论状态

		authorized.POST("/react/:type/:id/:reaction", reactionHandler.React) // 互动
		authorized.POST("/report/:type/:id", reactionHandler.Report)         // 举报
		authorized.POST("/reviews/:id/withdraw", moderationHandler.Withdraw) // 撤回举报

		authorized.GET("/notifications", notificationHandler.List)
	}

	// 审核路由
	moderation := r.Group("/moderation")
	moderation.Use(middleware.ModeratorRequired())
	{
		moderation.GET("/reviews", moderationHandler.Queue)
		moderation.POST("/reviews/:id/assign", moderationHandler.Assign)
		moderation.POST("/reviews/:id/decide", moderationHandler.Decide)
		moderation.GET("/history/:type/:id", moderationHandler.History)
	}
}
