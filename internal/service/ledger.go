package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// Ledger 评论与回复：一人一作品一条评论，按父资源定位，删除级联
type Ledger struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewLedger 创建评论服务
func NewLedger(repos *repository.Repositories) *Ledger {
	return &Ledger{repos: repos, now: time.Now}
}

// ReviewPatch 评论的可修改字段，nil 表示不修改
type ReviewPatch struct {
	Text  *string
	Score *int
}

func validateScore(score int) error {
	if score < model.MinScore || score > model.MaxScore {
		return invalid("score", fmt.Sprintf("score must be between %d and %d", model.MinScore, model.MaxScore))
	}
	return nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return invalid("text", "this field may not be blank")
	}
	return nil
}

func (l *Ledger) requireTitle(ctx context.Context, titleID uint) error {
	ok, err := l.repos.Exists(ctx, "titles", titleID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

// ListReviews 作品下的评论列表
func (l *Ledger) ListReviews(ctx context.Context, titleID uint, page repository.Page) ([]*model.Review, int64, error) {
	if err := l.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return l.repos.Review.ListByTitle(ctx, titleID, page)
}

// GetReview 获取作品下的评论，评论不属于该作品时视为不存在
func (l *Ledger) GetReview(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	return l.repos.Review.FindInTitle(ctx, titleID, reviewID)
}

// CreateReview 发表评论。重复评论由唯一索引拒绝
func (l *Ledger) CreateReview(ctx context.Context, titleID, authorID uint, text string, score int) (*model.Review, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if err := validateScore(score); err != nil {
		return nil, err
	}
	if err := l.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	ok, err := l.repos.Exists(ctx, "users", authorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid("author", "author does not exist")
	}

	review := &model.Review{
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     text,
		Score:    score,
		PubDate:  l.now().UTC(),
	}
	if err := l.repos.Review.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, fmt.Errorf("%w: %w", ErrReviewExists, err)
		case errors.Is(err, repository.ErrForeignKey):
			return nil, repository.ErrNotFound
		default:
			return nil, fmt.Errorf("create review: %w", err)
		}
	}
	return l.repos.Review.FindInTitle(ctx, titleID, review.ID)
}

// UpdateReview 部分更新评论，作者、作品和发布时间不可修改
func (l *Ledger) UpdateReview(ctx context.Context, titleID, reviewID uint, patch ReviewPatch) (*model.Review, error) {
	if _, err := l.repos.Review.FindInTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Text != nil {
		if err := validateText(*patch.Text); err != nil {
			return nil, err
		}
		fields["text"] = *patch.Text
	}
	if patch.Score != nil {
		if err := validateScore(*patch.Score); err != nil {
			return nil, err
		}
		fields["score"] = *patch.Score
	}
	if err := l.repos.Review.Update(ctx, reviewID, fields); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return l.repos.Review.FindInTitle(ctx, titleID, reviewID)
}

// DeleteReview 删除评论及其回复
func (l *Ledger) DeleteReview(ctx context.Context, titleID, reviewID uint) error {
	if _, err := l.repos.Review.FindInTitle(ctx, titleID, reviewID); err != nil {
		return err
	}
	return l.repos.Review.Delete(ctx, reviewID)
}

// ListComments 评论下的回复列表
func (l *Ledger) ListComments(ctx context.Context, titleID, reviewID uint, page repository.Page) ([]*model.Comment, int64, error) {
	if _, err := l.repos.Review.FindInTitle(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return l.repos.Comment.ListByReview(ctx, reviewID, page)
}

// GetComment 获取回复，父评论必须属于该作品
func (l *Ledger) GetComment(ctx context.Context, titleID, reviewID, commentID uint) (*model.Comment, error) {
	if _, err := l.repos.Review.FindInTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return l.repos.Comment.FindInReview(ctx, reviewID, commentID)
}

// CreateComment 发表回复。父评论按 (评论 ID, 作品 ID) 定位，属于其他作品时视为不存在
func (l *Ledger) CreateComment(ctx context.Context, titleID, reviewID, authorID uint, text string) (*model.Comment, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if _, err := l.repos.Review.FindInTitle(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     text,
		PubDate:  l.now().UTC(),
	}
	if err := l.repos.Comment.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return l.repos.Comment.FindInReview(ctx, reviewID, comment.ID)
}

// UpdateComment 修改回复内容，text 为 nil 时不修改
func (l *Ledger) UpdateComment(ctx context.Context, titleID, reviewID, commentID uint, text *string) (*model.Comment, error) {
	if _, err := l.GetComment(ctx, titleID, reviewID, commentID); err != nil {
		return nil, err
	}
	if text != nil {
		if err := validateText(*text); err != nil {
			return nil, err
		}
		if err := l.repos.Comment.UpdateText(ctx, commentID, *text); err != nil {
			return nil, fmt.Errorf("update comment: %w", err)
		}
	}
	return l.repos.Comment.FindInReview(ctx, reviewID, commentID)
}

// DeleteComment 删除回复
func (l *Ledger) DeleteComment(ctx context.Context, titleID, reviewID, commentID uint) error {
	if _, err := l.GetComment(ctx, titleID, reviewID, commentID); err != nil {
		return err
	}
	return l.repos.Comment.Delete(ctx, commentID)
}
