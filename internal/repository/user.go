package repository

import (
	"context"

	"github.com/user/yamdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// FindByID 根据 ID 查找用户
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByUsername 根据用户名查找用户
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByEmail 根据邮箱查找用户
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// List 分页获取用户列表，search 按用户名模糊匹配
func (r *UserRepository) List(ctx context.Context, search string, page Page) ([]*model.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		query = query.Where("username LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*model.User
	err := page.apply(query.Order("id")).Find(&users).Error
	return users, total, err
}

// Update 更新用户字段并返回最新数据
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]any) (*model.User, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
	}
	return r.FindByID(ctx, id)
}

// Delete 删除用户及其发表的评论与回复
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownReviews := tx.Model(&model.Review{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("author_id = ? OR review_id IN (?)", id, ownReviews).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Upsert 按 ID 插入或更新用户（批量导入）
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "role", "bio", "first_name", "last_name"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: "users", Name: "is_superuser"}, Value: false},
		}},
	}).Create(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	// 同 ID 的超级管理员不会被覆盖
	if res.RowsAffected == 0 {
		return ErrProtected
	}
	return nil
}

// DeleteNonSuperusers 删除除超级管理员外的全部用户
func (r *UserRepository) DeleteNonSuperusers(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("is_superuser = ?", false).Delete(&model.User{})
	return res.RowsAffected, res.Error
}
