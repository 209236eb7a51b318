package handler

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/authcode"
	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos   *repository.Repositories
	Config  *config.Config
	Catalog *service.Catalog
	Ledger  *service.Ledger
	Users   *service.Users
	Auth    *service.Auth
	Logger  *slog.Logger
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config, codes authcode.Store, m mailer.Mailer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Repos:   repos,
		Config:  cfg,
		Catalog: service.NewCatalog(repos),
		Ledger:  service.NewLedger(repos),
		Users:   service.NewUsers(repos),
		Auth:    service.NewAuth(repos.User, codes, m, logger),
		Logger:  logger,
	}
}

// respondError 将错误映射为 HTTP 响应
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.FieldError(c, verr.Field, verr.Message)
	case errors.Is(err, service.ErrReviewExists):
		utils.FieldError(c, "non_field_errors", service.ErrReviewExists.Error())
	case errors.Is(err, repository.ErrDuplicate):
		utils.BadRequest(c, "记录已存在")
	case errors.Is(err, repository.ErrNotFound):
		utils.NotFound(c, "")
	case errors.Is(err, policy.ErrUnauthenticated):
		utils.Unauthorized(c, "")
	case errors.Is(err, policy.ErrForbidden):
		utils.Forbidden(c, "")
	default:
		h.Logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", middleware.GetRequestID(c),
			"error", err,
		)
		utils.InternalServerError(c, "")
	}
}

// authorize 权限检查，失败时写入响应并返回 false
func (h *Handler) authorize(c *gin.Context, kind policy.Kind, op policy.Operation, res policy.Resource) bool {
	if err := policy.Check(kind, middleware.Actor(c), op, res); err != nil {
		h.respondError(c, err)
		return false
	}
	return true
}

// pathID 解析路径中的数字 ID，非法时返回 404
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.NotFound(c, "")
		return 0, false
	}
	return uint(id), true
}

// page 解析分页参数
func page(c *gin.Context) repository.Page {
	limit, offset := utils.ParsePage(c)
	return repository.Page{Limit: limit, Offset: offset}
}

// paginated 输出分页结果
func paginated(c *gin.Context, p repository.Page, count int64, results interface{}) {
	utils.Success(c, utils.Paginated(c, count, p.Limit, p.Offset, results))
}
