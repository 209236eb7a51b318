package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/service"
	"github.com/user/yamdb/internal/utils"
)

type reviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,gte=1,lte=10"`
}

type reviewPatchRequest struct {
	Text  *string `json:"text" binding:"omitempty,min=1"`
	Score *int    `json:"score" binding:"omitempty,gte=1,lte=10"`
}

// titleExists 确认路径中的作品存在，否则写入 404
func (h *Handler) titleExists(c *gin.Context, titleID uint) bool {
	ok, err := h.Repos.Exists(c.Request.Context(), "titles", titleID)
	if err != nil {
		h.respondError(c, err)
		return false
	}
	if !ok {
		h.respondError(c, repository.ErrNotFound)
		return false
	}
	return true
}

// ListReviews 作品的评论列表
func (h *Handler) ListReviews(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	if !h.authorize(c, policy.KindReview, policy.List, policy.Collection()) {
		return
	}
	p := page(c)
	reviews, total, err := h.Ledger.ListReviews(c.Request.Context(), titleID, p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, p, total, reviews)
}

// GetReview 评论详情
func (h *Handler) GetReview(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	review, err := h.Ledger.GetReview(c.Request.Context(), titleID, reviewID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindReview, policy.Retrieve, policy.OwnedBy(review.AuthorID)) {
		return
	}
	utils.Success(c, review)
}

// CreateReview 发表评论，每位用户对同一作品只能发表一次
func (h *Handler) CreateReview(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	if !h.titleExists(c, titleID) {
		return
	}
	if !h.authorize(c, policy.KindReview, policy.Create, policy.Collection()) {
		return
	}
	var req reviewRequest
	if !bind(c, &req) {
		return
	}
	user := middleware.CurrentUser(c)
	review, err := h.Ledger.CreateReview(c.Request.Context(), titleID, user.ID, req.Text, req.Score)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, review)
}

// UpdateReview 修改评论（作者、版主、管理员）
func (h *Handler) UpdateReview(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	review, err := h.Ledger.GetReview(ctx, titleID, reviewID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindReview, policy.Update, policy.OwnedBy(review.AuthorID)) {
		return
	}
	var req reviewPatchRequest
	if !bind(c, &req) {
		return
	}
	review, err = h.Ledger.UpdateReview(ctx, titleID, reviewID, service.ReviewPatch{Text: req.Text, Score: req.Score})
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, review)
}

// DeleteReview 删除评论（作者、版主、管理员）
func (h *Handler) DeleteReview(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	review, err := h.Ledger.GetReview(ctx, titleID, reviewID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindReview, policy.Delete, policy.OwnedBy(review.AuthorID)) {
		return
	}
	if err := h.Ledger.DeleteReview(ctx, titleID, reviewID); err != nil {
		h.respondError(c, err)
		return
	}
	utils.NoContent(c)
}
