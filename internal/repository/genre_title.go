package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GenreTitleRepository struct {
	db *gorm.DB
}

func NewGenreTitleRepository(db *gorm.DB) *GenreTitleRepository {
	return &GenreTitleRepository{db: db}
}

// Upsert 按 ID 插入或更新作品类型关联（批量导入）
func (r *GenreTitleRepository) Upsert(ctx context.Context, link *model.GenreTitle) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title_id", "genre_id"}),
	}).Create(link).Error)
}

// DeleteAll 清空作品类型关联表
func (r *GenreTitleRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := allRows(r.db.WithContext(ctx)).Delete(&model.GenreTitle{})
	return res.RowsAffected, res.Error
}
