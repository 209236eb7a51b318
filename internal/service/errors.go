package service

import (
	"errors"
	"fmt"
)

var (
	// ErrReviewExists 同一作者对同一作品已有评论
	ErrReviewExists = errors.New("you have already reviewed this title")
	// ErrEmailMismatch 用户名与邮箱不匹配
	ErrEmailMismatch = errors.New("email does not match the registered user")
)

// ValidationError 字段校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
