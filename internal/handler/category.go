package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

type slugRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

type slugPatchRequest struct {
	Name *string `json:"name" binding:"omitempty,max=256"`
	Slug *string `json:"slug" binding:"omitempty,max=50,slug"`
}

func (r slugPatchRequest) patch() service.SlugPatch {
	return service.SlugPatch{Name: r.Name, Slug: r.Slug}
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	if !h.authorize(c, policy.KindCategory, policy.List, policy.Collection()) {
		return
	}
	p := page(c)
	categories, total, err := h.Catalog.ListCategories(c.Request.Context(), c.Query("search"), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, p, total, categories)
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	if !h.authorize(c, policy.KindCategory, policy.Create, policy.Collection()) {
		return
	}
	var req slugRequest
	if !bind(c, &req) {
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, category)
}

// UpdateCategory 修改分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetCategory(ctx, c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindCategory, policy.Update, policy.OwnedBy(0)) {
		return
	}
	var req slugPatchRequest
	if !bind(c, &req) {
		return
	}
	category, err := h.Catalog.UpdateCategory(ctx, c.Param("slug"), req.patch())
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, category)
}

// DeleteCategory 删除分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetCategory(ctx, c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindCategory, policy.Delete, policy.OwnedBy(0)) {
		return
	}
	if err := h.Catalog.DeleteCategory(ctx, c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	utils.NoContent(c)
}
