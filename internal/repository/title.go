package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratingColumn 作品评分：该作品全部评论分数的平均值，无评论时为 NULL
const ratingColumn = "(SELECT CAST(AVG(reviews.score) AS DOUBLE PRECISION) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// TitleFilter 作品列表筛选条件
type TitleFilter struct {
	Name     string // 名称包含
	Year     int
	Category string // 分类 slug
	Genre    string // 类型 slug
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

func (r *TitleRepository) filtered(db *gorm.DB, f TitleFilter) *gorm.DB {
	query := db.Model(&model.Title{})
	if f.Name != "" {
		query = query.Where("titles.name LIKE ?", "%"+f.Name+"%")
	}
	if f.Year != 0 {
		query = query.Where("titles.year = ?", f.Year)
	}
	if f.Category != "" {
		query = query.Where("titles.category_id IN (?)",
			db.Model(&model.Category{}).Select("id").Where("slug = ?", f.Category))
	}
	if f.Genre != "" {
		query = query.Where("titles.id IN (?)",
			db.Model(&model.GenreTitle{}).Select("genre_titles.title_id").
				Joins("JOIN genres ON genres.id = genre_titles.genre_id").
				Where("genres.slug = ?", f.Genre))
	}
	return query
}

func (r *TitleRepository) withRating(db *gorm.DB) *gorm.DB {
	return db.Select("titles.*, " + ratingColumn).Preload("Category")
}

// FindByID 根据 ID 查找作品（含评分、分类与类型）
func (r *TitleRepository) FindByID(ctx context.Context, id uint) (*model.Title, error) {
	db := r.db.WithContext(ctx)
	var title model.Title
	if err := r.withRating(db.Model(&model.Title{})).Where("titles.id = ?", id).Take(&title).Error; err != nil {
		return nil, translate(err)
	}
	if err := r.loadGenres(db, []*model.Title{&title}); err != nil {
		return nil, err
	}
	return &title, nil
}

// List 按筛选条件分页获取作品列表
func (r *TitleRepository) List(ctx context.Context, f TitleFilter, page Page) ([]*model.Title, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := r.filtered(db, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []*model.Title
	query := r.withRating(r.filtered(db, f)).Order("titles.id")
	if err := page.apply(query).Find(&titles).Error; err != nil {
		return nil, 0, err
	}
	if err := r.loadGenres(db, titles); err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// Create 创建作品并写入类型关联
func (r *TitleRepository) Create(ctx context.Context, title *model.Title, genreIDs []uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(title).Error; err != nil {
			return err
		}
		return replaceGenres(tx, title.ID, genreIDs)
	}))
}

// Update 更新作品字段，genreIDs 非 nil 时整体替换类型关联
func (r *TitleRepository) Update(ctx context.Context, id uint, fields map[string]any, genreIDs []uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		if len(fields) > 0 {
			if err := tx.Model(&model.Title{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
		}
		if genreIDs != nil {
			return replaceGenres(tx, id, genreIDs)
		}
		return nil
	}))
}

// Delete 删除作品，级联删除其评论、回复与类型关联
func (r *TitleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&model.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&model.GenreTitle{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Title{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Upsert 按 ID 插入或更新作品（批量导入）
func (r *TitleRepository) Upsert(ctx context.Context, title *model.Title) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "year", "category_id"}),
	}).Create(title).Error)
}

// DeleteAll 清空作品表
func (r *TitleRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := allRows(r.db.WithContext(ctx)).Delete(&model.Title{})
	return res.RowsAffected, res.Error
}

type titleGenreRow struct {
	TitleID uint
	Name    string
	Slug    string
}

// loadGenres 批量填充作品的类型列表
func (r *TitleRepository) loadGenres(db *gorm.DB, titles []*model.Title) error {
	if len(titles) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(titles))
	byID := make(map[uint]*model.Title, len(titles))
	for _, t := range titles {
		t.Genres = []model.Genre{}
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	var rows []titleGenreRow
	err := db.Table("genre_titles").
		Select("genre_titles.title_id, genres.name, genres.slug").
		Joins("JOIN genres ON genres.id = genre_titles.genre_id").
		Where("genre_titles.title_id IN ?", ids).
		Order("genres.id").
		Scan(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		if t, ok := byID[row.TitleID]; ok {
			t.Genres = append(t.Genres, model.Genre{Name: row.Name, Slug: row.Slug})
		}
	}
	return nil
}

func replaceGenres(tx *gorm.DB, titleID uint, genreIDs []uint) error {
	if err := tx.Where("title_id = ?", titleID).Delete(&model.GenreTitle{}).Error; err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]model.GenreTitle, 0, len(genreIDs))
	for _, gid := range genreIDs {
		links = append(links, model.GenreTitle{TitleID: titleID, GenreID: gid})
	}
	return tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}
