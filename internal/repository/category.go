package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create 创建分类
func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

// FindBySlug 根据 slug 查找分类
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// List 分页获取分类，search 按名称模糊匹配
func (r *CategoryRepository) List(ctx context.Context, search string, page Page) ([]*model.Category, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Category{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var categories []*model.Category
	err := page.apply(query.Order("id")).Find(&categories).Error
	return categories, total, err
}

// Update 更新分类字段并返回最新数据
func (r *CategoryRepository) Update(ctx context.Context, id uint, fields map[string]any) (*model.Category, error) {
	db := r.db.WithContext(ctx)
	if len(fields) > 0 {
		if err := db.Model(&model.Category{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return nil, translate(err)
		}
	}
	var item model.Category
	if err := db.First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// Delete 删除分类，关联作品的分类置空
func (r *CategoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Title{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Upsert 按 ID 插入或更新分类（批量导入）
func (r *CategoryRepository) Upsert(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "slug"}),
	}).Create(category).Error)
}

// DeleteAll 清空分类表
func (r *CategoryRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := allRows(r.db.WithContext(ctx)).Delete(&model.Category{})
	return res.RowsAffected, res.Error
}
