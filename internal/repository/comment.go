package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) withAuthor(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Comment{}).
		Select("comments.*, users.username AS author_username").
		Joins("LEFT JOIN users ON users.id = comments.author_id")
}

// Create 发表回复
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

// FindInReview 查找属于指定评论的回复
func (r *CommentRepository) FindInReview(ctx context.Context, reviewID, commentID uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.withAuthor(r.db.WithContext(ctx)).
		Where("comments.id = ? AND comments.review_id = ?", commentID, reviewID).
		Take(&comment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

// ListByReview 分页获取评论下的回复
func (r *CommentRepository) ListByReview(ctx context.Context, reviewID uint, page Page) ([]*model.Comment, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.Comment{}).Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*model.Comment
	query := r.withAuthor(db).Where("comments.review_id = ?", reviewID).Order("comments.pub_date DESC, comments.id DESC")
	err := page.apply(query).Find(&comments).Error
	return comments, total, err
}

// UpdateText 修改回复内容
func (r *CommentRepository) UpdateText(ctx context.Context, id uint, text string) error {
	return translate(r.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", id).Update("text", text).Error)
}

// Delete 删除回复
func (r *CommentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Upsert 按 ID 插入或更新回复（批量导入），发布时间只在首次插入时写入
func (r *CommentRepository) Upsert(ctx context.Context, comment *model.Comment) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"review_id", "author_id", "text"}),
	}).Create(comment).Error)
}

// DeleteAll 清空回复表
func (r *CommentRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := allRows(r.db.WithContext(ctx)).Delete(&model.Comment{})
	return res.RowsAffected, res.Error
}
