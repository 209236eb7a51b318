package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/yamdb/internal/authcode"
	"github.com/user/yamdb/internal/mailer"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// Auth 注册与确认码换取令牌
type Auth struct {
	users  *repository.UserRepository
	codes  authcode.Store
	mailer mailer.Mailer
	logger *slog.Logger
}

// NewAuth 创建认证服务
func NewAuth(users *repository.UserRepository, codes authcode.Store, m mailer.Mailer, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{users: users, codes: codes, mailer: m, logger: logger}
}

// Signup 注册或重新申请确认码。已存在的用户名必须与邮箱匹配，新确认码覆盖旧的
func (s *Auth) Signup(ctx context.Context, username, email string) (*model.User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	email = strings.ToLower(email)

	user, err := s.resolveSignupUser(ctx, username, email)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Issue(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue confirmation code: %w", err)
	}
	if err := s.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		return nil, fmt.Errorf("send confirmation code: %w", err)
	}
	s.logger.InfoContext(ctx, "signup confirmation code issued", "username", user.Username)
	return user, nil
}

func (s *Auth) resolveSignupUser(ctx context.Context, username, email string) (*model.User, error) {
	existing, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.Email != email {
			return nil, fmt.Errorf("%w: %w", invalid("email", "email does not match the registered user"), ErrEmailMismatch)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, invalid("email", "a user with that email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &model.User{Username: username, Email: email, Role: model.RoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %w", invalid("username", "a user with that username or email already exists"), err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Confirm 校验确认码，成功后确认码失效并返回用户
func (s *Auth) Confirm(ctx context.Context, username, code string) (*model.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, invalid("confirmation_code", "this field is required")
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Verify(ctx, user.Username, code); err != nil {
		if errors.Is(err, authcode.ErrInvalidCode) {
			return nil, fmt.Errorf("%w: %w", invalid("confirmation_code", "invalid or expired confirmation code"), err)
		}
		return nil, err
	}
	return user, nil
}
