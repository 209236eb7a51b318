package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

type titleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required,gte=1,notfutureyear"`
	Description *string  `json:"description"`
	Category    string   `json:"category" binding:"omitempty,slug"`
	Genre       []string `json:"genre" binding:"omitempty,dive,slug"`
}

type titlePatchRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year" binding:"omitempty,gte=1,notfutureyear"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

func titleFilter(c *gin.Context) repository.TitleFilter {
	f := repository.TitleFilter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
	}
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		f.Year = year
	}
	return f
}

// ListTitles 作品列表，支持 name / year / category / genre 筛选
func (h *Handler) ListTitles(c *gin.Context) {
	if !h.authorize(c, policy.KindTitle, policy.List, policy.Collection()) {
		return
	}
	p := page(c)
	titles, total, err := h.Catalog.ListTitles(c.Request.Context(), titleFilter(c), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, p, total, titles)
}

// GetTitle 作品详情
func (h *Handler) GetTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	title, err := h.Catalog.GetTitle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindTitle, policy.Retrieve, policy.OwnedBy(0)) {
		return
	}
	utils.Success(c, title)
}

// CreateTitle 创建作品
func (h *Handler) CreateTitle(c *gin.Context) {
	if !h.authorize(c, policy.KindTitle, policy.Create, policy.Collection()) {
		return
	}
	var req titleRequest
	if !bind(c, &req) {
		return
	}
	title, err := h.Catalog.CreateTitle(c.Request.Context(), service.TitleInput{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, title)
}

// UpdateTitle 部分更新作品
func (h *Handler) UpdateTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetTitle(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindTitle, policy.Update, policy.OwnedBy(0)) {
		return
	}
	var req titlePatchRequest
	if !bind(c, &req) {
		return
	}
	title, err := h.Catalog.UpdateTitle(ctx, id, service.TitlePatch{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genre,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, title)
}

// DeleteTitle 删除作品
func (h *Handler) DeleteTitle(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Catalog.GetTitle(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindTitle, policy.Delete, policy.OwnedBy(0)) {
		return
	}
	if err := h.Catalog.DeleteTitle(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	utils.NoContent(c)
}
