package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// Create 创建类型
func (r *GenreRepository) Create(ctx context.Context, genre *model.Genre) error {
	return translate(r.db.WithContext(ctx).Create(genre).Error)
}

// FindBySlug 根据 slug 查找类型
func (r *GenreRepository) FindBySlug(ctx context.Context, slug string) (*model.Genre, error) {
	var genre model.Genre
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&genre).Error; err != nil {
		return nil, translate(err)
	}
	return &genre, nil
}

// FindBySlugs 批量查找类型，返回结果不保证与入参顺序一致
func (r *GenreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]model.Genre, error) {
	var genres []model.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Order("id").Find(&genres).Error
	return genres, err
}

// List 分页获取类型，search 按名称模糊匹配
func (r *GenreRepository) List(ctx context.Context, search string, page Page) ([]*model.Genre, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Genre{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []*model.Genre
	err := page.apply(query.Order("id")).Find(&genres).Error
	return genres, total, err
}

// Update 更新类型字段并返回最新数据
func (r *GenreRepository) Update(ctx context.Context, id uint, fields map[string]any) (*model.Genre, error) {
	db := r.db.WithContext(ctx)
	if len(fields) > 0 {
		if err := db.Model(&model.Genre{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, translate(err)
		}
	}
	var item model.Genre
	if err := db.First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// Delete 删除类型及其与作品的关联
func (r *GenreRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("genre_id = ?", id).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Genre{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Upsert 按 ID 插入或更新类型（批量导入）
func (r *GenreRepository) Upsert(ctx context.Context, genre *model.Genre) error {
	return translate(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "slug"}),
	}).Create(genre).Error)
}

// DeleteAll 清空类型表
func (r *GenreRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := allRows(r.db.WithContext(ctx)).Delete(&model.Genre{})
	return res.RowsAffected, res.Error
}
