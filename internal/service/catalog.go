package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// Catalog 分类、类型与作品
type Catalog struct {
	repos *repository.Repositories
}

// NewCatalog 创建目录服务
func NewCatalog(repos *repository.Repositories) *Catalog {
	return &Catalog{repos: repos}
}

// SlugPatch 分类 / 类型的可修改字段
type SlugPatch struct {
	Name *string
	Slug *string
}

func validateNameSlug(name, slug string) error {
	if err := checkVar("name", name, "required,max=256"); err != nil {
		return err
	}
	return checkVar("slug", slug, "required,max=50,slug")
}

func (p SlugPatch) fields() (map[string]any, error) {
	fields := map[string]any{}
	if p.Name != nil {
		if err := checkVar("name", *p.Name, "required,max=256"); err != nil {
			return nil, err
		}
		fields["name"] = *p.Name
	}
	if p.Slug != nil {
		if err := checkVar("slug", *p.Slug, "required,max=50,slug"); err != nil {
			return nil, err
		}
		fields["slug"] = *p.Slug
	}
	return fields, nil
}

func slugTaken(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("%w: %w", invalid("slug", "an object with this slug already exists"), err)
	}
	return err
}

// ListCategories 分类列表
func (s *Catalog) ListCategories(ctx context.Context, search string, page repository.Page) ([]*model.Category, int64, error) {
	return s.repos.Category.List(ctx, search, page)
}

// GetCategory 按 slug 获取分类
func (s *Catalog) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	return s.repos.Category.FindBySlug(ctx, slug)
}

// CreateCategory 创建分类
func (s *Catalog) CreateCategory(ctx context.Context, name, slug string) (*model.Category, error) {
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}
	category := &model.Category{Name: name, Slug: slug}
	if err := s.repos.Category.Create(ctx, category); err != nil {
		return nil, slugTaken(err)
	}
	return category, nil
}

// UpdateCategory 修改分类
func (s *Catalog) UpdateCategory(ctx context.Context, slug string, patch SlugPatch) (*model.Category, error) {
	category, err := s.repos.Category.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}
	updated, err := s.repos.Category.Update(ctx, category.ID, fields)
	if err != nil {
		return nil, slugTaken(err)
	}
	return updated, nil
}

// DeleteCategory 删除分类，作品保留
func (s *Catalog) DeleteCategory(ctx context.Context, slug string) error {
	category, err := s.repos.Category.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repos.Category.Delete(ctx, category.ID)
}

// ListGenres 类型列表
func (s *Catalog) ListGenres(ctx context.Context, search string, page repository.Page) ([]*model.Genre, int64, error) {
	return s.repos.Genre.List(ctx, search, page)
}

// GetGenre 按 slug 获取类型
func (s *Catalog) GetGenre(ctx context.Context, slug string) (*model.Genre, error) {
	return s.repos.Genre.FindBySlug(ctx, slug)
}

// CreateGenre 创建类型
func (s *Catalog) CreateGenre(ctx context.Context, name, slug string) (*model.Genre, error) {
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}
	genre := &model.Genre{Name: name, Slug: slug}
	if err := s.repos.Genre.Create(ctx, genre); err != nil {
		return nil, slugTaken(err)
	}
	return genre, nil
}

// UpdateGenre 修改类型
func (s *Catalog) UpdateGenre(ctx context.Context, slug string, patch SlugPatch) (*model.Genre, error) {
	genre, err := s.repos.Genre.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}
	updated, err := s.repos.Genre.Update(ctx, genre.ID, fields)
	if err != nil {
		return nil, slugTaken(err)
	}
	return updated, nil
}

// DeleteGenre 删除类型，作品保留
func (s *Catalog) DeleteGenre(ctx context.Context, slug string) error {
	genre, err := s.repos.Genre.FindBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repos.Genre.Delete(ctx, genre.ID)
}

// TitleInput 创建作品的参数，分类和类型按 slug 引用
type TitleInput struct {
	Name        string
	Year        int
	Description *string
	Category    string
	Genres      []string
}

// TitlePatch 作品的可修改字段，nil 表示不修改
type TitlePatch struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genres      *[]string
}

func validateYear(year int) error {
	return checkVar("year", year, "gte=1,notfutureyear")
}

func (s *Catalog) resolveCategory(ctx context.Context, slug string) (*uint, error) {
	if slug == "" {
		return nil, nil
	}
	category, err := s.repos.Category.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid("category", fmt.Sprintf("category %q does not exist", slug))
	}
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func (s *Catalog) resolveGenres(ctx context.Context, slugs []string) ([]uint, error) {
	genres, err := s.repos.Genre.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]uint, len(genres))
	for _, g := range genres {
		bySlug[g.Slug] = g.ID
	}
	ids := make([]uint, 0, len(slugs))
	for _, slug := range slugs {
		id, ok := bySlug[slug]
		if !ok {
			return nil, invalid("genre", fmt.Sprintf("genre %q does not exist", slug))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListTitles 作品列表
func (s *Catalog) ListTitles(ctx context.Context, filter repository.TitleFilter, page repository.Page) ([]*model.Title, int64, error) {
	return s.repos.Title.List(ctx, filter, page)
}

// GetTitle 获取作品（评分实时计算）
func (s *Catalog) GetTitle(ctx context.Context, id uint) (*model.Title, error) {
	return s.repos.Title.FindByID(ctx, id)
}

// CreateTitle 创建作品
func (s *Catalog) CreateTitle(ctx context.Context, in TitleInput) (*model.Title, error) {
	if err := checkVar("name", in.Name, "required,max=256"); err != nil {
		return nil, err
	}
	if err := validateYear(in.Year); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	genreIDs, err := s.resolveGenres(ctx, in.Genres)
	if err != nil {
		return nil, err
	}

	title := &model.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
		CategoryID:  categoryID,
	}
	if err := s.repos.Title.Create(ctx, title, genreIDs); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}
	return s.repos.Title.FindByID(ctx, title.ID)
}

// UpdateTitle 部分更新作品，Genres 非 nil 时整体替换
func (s *Catalog) UpdateTitle(ctx context.Context, id uint, patch TitlePatch) (*model.Title, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		if err := checkVar("name", *patch.Name, "required,max=256"); err != nil {
			return nil, err
		}
		fields["name"] = *patch.Name
	}
	if patch.Year != nil {
		if err := validateYear(*patch.Year); err != nil {
			return nil, err
		}
		fields["year"] = *patch.Year
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Category != nil {
		categoryID, err := s.resolveCategory(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		fields["category_id"] = categoryID
	}

	var genreIDs []uint
	if patch.Genres != nil {
		ids, err := s.resolveGenres(ctx, *patch.Genres)
		if err != nil {
			return nil, err
		}
		genreIDs = ids
	}

	if err := s.repos.Title.Update(ctx, id, fields, genreIDs); err != nil {
		return nil, err
	}
	return s.repos.Title.FindByID(ctx, id)
}

// DeleteTitle 删除作品及其评论、回复
func (s *Catalog) DeleteTitle(ctx context.Context, id uint) error {
	return s.repos.Title.Delete(ctx, id)
}
