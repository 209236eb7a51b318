package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/ratelimit"
	"github.com/user/yamdb/internal/utils"
)

// New 创建 gin 引擎并注册中间件与路由
func New(h *handler.Handler, signupLimiter ratelimit.Limiter, logger *slog.Logger) (*gin.Engine, error) {
	if err := handler.SetupValidator(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(utils.MethodNotAllowed)
	r.NoRoute(func(c *gin.Context) { utils.NotFound(c, "") })

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	RegisterRoutes(r, h, signupLimiter)
	return r, nil
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler, signupLimiter ratelimit.Limiter) {
	if signupLimiter == nil {
		signupLimiter = ratelimit.Unlimited{}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Authenticate(h.Config.AppSecret, h.Repos.User))

	// ==================== 认证 ====================
	auth := api.Group("/auth")
	auth.Use(middleware.RateLimit(signupLimiter, "auth"))
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/token", h.Token)
	}

	// ==================== 分类与类型 ====================
	categories := api.Group("/categories")
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.PATCH("/:slug", h.UpdateCategory)
		categories.DELETE("/:slug", h.DeleteCategory)
	}

	genres := api.Group("/genres")
	{
		genres.GET("", h.ListGenres)
		genres.POST("", h.CreateGenre)
		genres.PATCH("/:slug", h.UpdateGenre)
		genres.DELETE("/:slug", h.DeleteGenre)
	}

	// ==================== 作品、评论、回复 ====================
	titles := api.Group("/titles")
	{
		titles.GET("", h.ListTitles)
		titles.POST("", h.CreateTitle)
		titles.GET("/:title_id", h.GetTitle)
		titles.PATCH("/:title_id", h.UpdateTitle)
		titles.DELETE("/:title_id", h.DeleteTitle)

		reviews := titles.Group("/:title_id/reviews")
		reviews.GET("", h.ListReviews)
		reviews.POST("", h.CreateReview)
		reviews.GET("/:review_id", h.GetReview)
		reviews.PATCH("/:review_id", h.UpdateReview)
		reviews.DELETE("/:review_id", h.DeleteReview)

		comments := reviews.Group("/:review_id/comments")
		comments.GET("", h.ListComments)
		comments.POST("", h.CreateComment)
		comments.GET("/:comment_id", h.GetComment)
		comments.PATCH("/:comment_id", h.UpdateComment)
		comments.DELETE("/:comment_id", h.DeleteComment)
	}

	// ==================== 用户 ====================
	users := api.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)

		me := users.Group("/me")
		me.Use(middleware.RequireAuth())
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)

		users.GET("/:username", h.GetUser)
		users.PATCH("/:username", h.UpdateUser)
		users.DELETE("/:username", h.DeleteUser)
	}
}
