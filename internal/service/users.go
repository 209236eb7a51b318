package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// Users 用户管理（管理员）与个人资料
type Users struct {
	repos *repository.Repositories
}

// NewUsers 创建用户服务
func NewUsers(repos *repository.Repositories) *Users {
	return &Users{repos: repos}
}

// UserInput 管理员创建用户的参数
type UserInput struct {
	Username  string
	Email     string
	Role      string
	Bio       string
	FirstName string
	LastName  string
}

// UserPatch 用户的可修改字段，nil 表示不修改
type UserPatch struct {
	Username  *string
	Email     *string
	Role      *string
	Bio       *string
	FirstName *string
	LastName  *string
}

func validateUsername(username string) error {
	return checkVar("username", username, "required,max=150,username")
}

func validateEmail(email string) error {
	return checkVar("email", email, "required,max=254,email")
}

func parseRole(s string) (model.Role, error) {
	if s == "" {
		return model.RoleUser, nil
	}
	role, ok := model.ParseRole(s)
	if !ok {
		return "", invalid("role", fmt.Sprintf("%q is not a valid choice", s))
	}
	return role, nil
}

// duplicateField 唯一约束冲突时判断是用户名还是邮箱
func (s *Users) duplicateField(ctx context.Context, selfID uint, username string, err error) error {
	if !errors.Is(err, repository.ErrDuplicate) {
		return err
	}
	field := "email"
	if u, findErr := s.repos.User.FindByUsername(ctx, username); findErr == nil && u.ID != selfID {
		field = "username"
	}
	return fmt.Errorf("%w: %w", invalid(field, "a user with that "+field+" already exists"), err)
}

// List 用户列表，search 按用户名模糊匹配
func (s *Users) List(ctx context.Context, search string, page repository.Page) ([]*model.User, int64, error) {
	return s.repos.User.List(ctx, search, page)
}

// Get 按用户名获取用户
func (s *Users) Get(ctx context.Context, username string) (*model.User, error) {
	return s.repos.User.FindByUsername(ctx, username)
}

// GetByID 按 ID 获取用户
func (s *Users) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return s.repos.User.FindByID(ctx, id)
}

// Create 管理员创建用户
func (s *Users) Create(ctx context.Context, in UserInput) (*model.User, error) {
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	role, err := parseRole(in.Role)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  in.Username,
		Email:     strings.ToLower(in.Email),
		Role:      role,
		Bio:       in.Bio,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, s.duplicateField(ctx, 0, in.Username, err)
	}
	return user, nil
}

// Update 部分更新用户。allowRole 为 false 时忽略角色字段（用户修改自己的资料）
func (s *Users) Update(ctx context.Context, username string, patch UserPatch, allowRole bool) (*model.User, error) {
	user, err := s.repos.User.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Username != nil {
		if err := validateUsername(*patch.Username); err != nil {
			return nil, err
		}
		fields["username"] = *patch.Username
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return nil, err
		}
		fields["email"] = strings.ToLower(*patch.Email)
	}
	if patch.Role != nil && allowRole {
		role, err := parseRole(*patch.Role)
		if err != nil {
			return nil, err
		}
		fields["role"] = role
	}
	if patch.Bio != nil {
		fields["bio"] = *patch.Bio
	}
	if patch.FirstName != nil {
		if err := checkVar("first_name", *patch.FirstName, "max=150"); err != nil {
			return nil, err
		}
		fields["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		if err := checkVar("last_name", *patch.LastName, "max=150"); err != nil {
			return nil, err
		}
		fields["last_name"] = *patch.LastName
	}

	updated, err := s.repos.User.Update(ctx, user.ID, fields)
	if err != nil {
		newName := user.Username
		if patch.Username != nil {
			newName = *patch.Username
		}
		return nil, s.duplicateField(ctx, user.ID, newName, err)
	}
	return updated, nil
}

// Delete 删除用户及其评论与回复
func (s *Users) Delete(ctx context.Context, username string) error {
	user, err := s.repos.User.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.repos.User.Delete(ctx, user.ID)
}
