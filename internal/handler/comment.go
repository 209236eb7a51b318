package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/utils"
)

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

type commentPatchRequest struct {
	Text *string `json:"text" binding:"omitempty,min=1"`
}

// commentPath 解析 title_id / review_id / comment_id
func commentPath(c *gin.Context, withComment bool) (titleID, reviewID, commentID uint, ok bool) {
	if titleID, ok = pathID(c, "title_id"); !ok {
		return
	}
	if reviewID, ok = pathID(c, "review_id"); !ok {
		return
	}
	if withComment {
		commentID, ok = pathID(c, "comment_id")
	}
	return
}

// ListComments 评论下的回复列表
func (h *Handler) ListComments(c *gin.Context) {
	titleID, reviewID, _, ok := commentPath(c, false)
	if !ok {
		return
	}
	if !h.authorize(c, policy.KindComment, policy.List, policy.Collection()) {
		return
	}
	p := page(c)
	comments, total, err := h.Ledger.ListComments(c.Request.Context(), titleID, reviewID, p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	paginated(c, p, total, comments)
}

// GetComment 回复详情
func (h *Handler) GetComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c, true)
	if !ok {
		return
	}
	comment, err := h.Ledger.GetComment(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindComment, policy.Retrieve, policy.OwnedBy(comment.AuthorID)) {
		return
	}
	utils.Success(c, comment)
}

// CreateComment 发表回复，父评论必须属于路径中的作品
func (h *Handler) CreateComment(c *gin.Context) {
	titleID, reviewID, _, ok := commentPath(c, false)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Ledger.GetReview(ctx, titleID, reviewID); err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindComment, policy.Create, policy.Collection()) {
		return
	}
	var req commentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.Ledger.CreateComment(ctx, titleID, reviewID, middleware.CurrentUser(c).ID, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Created(c, comment)
}

// UpdateComment 修改回复（作者、版主、管理员）
func (h *Handler) UpdateComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	comment, err := h.Ledger.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindComment, policy.Update, policy.OwnedBy(comment.AuthorID)) {
		return
	}
	var req commentPatchRequest
	if !bind(c, &req) {
		return
	}
	comment, err = h.Ledger.UpdateComment(ctx, titleID, reviewID, commentID, req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, comment)
}

// DeleteComment 删除回复（作者、版主、管理员）
func (h *Handler) DeleteComment(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentPath(c, true)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	comment, err := h.Ledger.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !h.authorize(c, policy.KindComment, policy.Delete, policy.OwnedBy(comment.AuthorID)) {
		return
	}
	if err := h.Ledger.DeleteComment(ctx, titleID, reviewID, commentID); err != nil {
		h.respondError(c, err)
		return
	}
	utils.NoContent(c)
}
