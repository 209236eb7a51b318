package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

type userRequest struct {
	Username  string `json:"username" binding:"required,max=150,username"`
	Email     string `json:"email" binding:"required,max=254,email"`
	Role      string `json:"role" binding:"omitempty,oneof=user moderator admin"`
	Bio       string `json:"bio"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

type userPatchRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=150,username"`
	Email     *string `json:"email" binding:"omitempty,max=254,email"`
	Role      *string `json:"role" binding:"omitempty,oneof=user moderator admin"`
	Bio       *string `json:"bio"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
}

func (r userPatchRequest) patch() service.UserPatch {
	return service.UserPatch{
		Username:  r.Username,
		Email:     r.Email,
		Role:      r.Role,
		Bio:       r.Bio,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// ListUsers 用户列表（管理员），支持 search 按用户名搜索
func (h *Handler) ListUsers(c *gin.Context) {
	if !h.authorize(c, policy.KindUser, policy.List, policy.Collection()) {
		return
	}
	p := page(c)
	users, total, err := h.Users.List(c.Request.Context(), c.Query("search"), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, p, total, users)
}

// CreateUser 创建用户（管理员）
func (h *Handler) CreateUser(c *gin.Context) {
	if !h.authorize(c, policy.KindUser, policy.Create, policy.Collection()) {
		return
	}
	var req userRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Users.Create(c.Request.Context(), service.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		Role:      req.Role,
		Bio:       req.Bio,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, user)
}

// GetUser 按用户名获取用户（管理员）
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindUser, policy.Retrieve, policy.OwnedBy(user.ID)) {
		return
	}
	utils.Success(c, user)
}

// UpdateUser 修改用户（管理员，可修改角色）
func (h *Handler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.Get(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindUser, policy.Update, policy.OwnedBy(user.ID)) {
		return
	}
	var req userPatchRequest
	if !bind(c, &req) {
		return
	}
	updated, err := h.Users.Update(ctx, user.Username, req.patch(), true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, updated)
}

// DeleteUser 删除用户（管理员）
func (h *Handler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.Get(ctx, c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindUser, policy.Delete, policy.OwnedBy(user.ID)) {
		return
	}
	if err := h.Users.Delete(ctx, user.Username); err != nil {
		h.respondError(c, err)
		return
	}
	utils.NoContent(c)
}

// Me 当前用户资料
func (h *Handler) Me(c *gin.Context) {
	current := middleware.CurrentUser(c)
	if current == nil {
		h.respondError(c, policy.ErrUnauthenticated)
		return
	}
	if !h.authorize(c, policy.KindProfile, policy.Retrieve, policy.OwnedBy(current.ID)) {
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), current.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, user)
}

// UpdateMe 修改当前用户资料，角色字段被忽略
func (h *Handler) UpdateMe(c *gin.Context) {
	current := middleware.CurrentUser(c)
	if current == nil {
		h.respondError(c, policy.ErrUnauthenticated)
		return
	}
	if !h.authorize(c, policy.KindProfile, policy.Update, policy.OwnedBy(current.ID)) {
		return
	}
	var req userPatchRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.Users.Update(c.Request.Context(), current.Username, req.patch(), false)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, user)
}
