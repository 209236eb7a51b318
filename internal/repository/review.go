package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) withAuthor(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Review{}).
		Select("reviews.*, users.username AS author_username").
		Joins("LEFT JOIN users ON users.id = reviews.author_id")
}

// Create 发表评论，同一作者对同一作品重复发表时返回 ErrDuplicate
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error)
}

// FindInTitle 查找属于指定作品的评论
func (r *ReviewRepository) FindInTitle(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	var review model.Review
	err := r.withAuthor(r.db.WithContext(ctx)).
		Where("reviews.id = ? AND reviews.title_id = ?", reviewID, titleID).
		Take(&review).Error
	if err != nil {
		return nil, translate(err)
	}
	return &review, nil
}

// ListByTitle 分页获取作品下的评论
func (r *ReviewRepository) ListByTitle(ctx context.Context, titleID uint, page Page) ([]*model.Review, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []*model.Review
	query := r.withAuthor(db).Where("reviews.title_id = ?", titleID).Order("reviews.pub_date DESC, reviews.id DESC")
	err := page.apply(query).Find(&reviews).Error
	return reviews, total, err
}

// Update 更新评论字段
func (r *ReviewRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

// Delete 删除评论及其回复
func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Review{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Upsert 按 ID 插入或更新评论（批量导入），发布时间只在首次插入时写入
func (r *ReviewRepository) Upsert(ctx context.Context, review *model.Review) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title_id", "author_id", "text", "score"}),
	}).Create(review).Error)
}

// DeleteAll 清空评论表
func (r *ReviewRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := allRows(r.db.WithContext(ctx)).Delete(&model.Review{})
	return res.RowsAffected, res.Error
}
