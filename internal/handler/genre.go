package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/utils"
)

// ListGenres 类型列表
func (h *Handler) ListGenres(c *gin.Context) {
	if !h.authorize(c, policy.KindGenre, policy.List, policy.Collection()) {
		return
	}
	p := page(c)
	genres, total, err := h.Catalog.ListGenres(c.Request.Context(), c.Query("search"), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, p, total, genres)
}

// CreateGenre 创建类型
func (h *Handler) CreateGenre(c *gin.Context) {
	if !h.authorize(c, policy.KindGenre, policy.Create, policy.Collection()) {
		return
	}
	var req slugRequest
	if !bind(c, &req) {
		return
	}
	genre, err := h.Catalog.CreateGenre(c.Request.Context(), req.Name, req.Slug)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, genre)
}

// UpdateGenre 修改类型
func (h *Handler) UpdateGenre(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetGenre(ctx, c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindGenre, policy.Update, policy.OwnedBy(0)) {
		return
	}
	var req slugPatchRequest
	if !bind(c, &req) {
		return
	}
	genre, err := h.Catalog.UpdateGenre(ctx, c.Param("slug"), req.patch())
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, genre)
}

// DeleteGenre 删除类型
func (h *Handler) DeleteGenre(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetGenre(ctx, c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindGenre, policy.Delete, policy.OwnedBy(0)) {
		return
	}
	if err := h.Catalog.DeleteGenre(ctx, c.Param("slug")); err != nil {
		h.respondError(c, err)
		return
	}
	utils.NoContent(c)
}
