package model

import (
	"strings"
	"time"
)

// Role 用户角色
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole 解析角色字符串，未知角色返回 false
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleModerator:
		return RoleModerator, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return RoleUser, false
	}
}

// User 用户模型
type User struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"size:254;uniqueIndex;not null"`
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	Bio         string    `json:"bio" gorm:"type:text"`
	Role        Role      `json:"role" gorm:"size:16;not null;default:user"`
	IsSuperuser bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"-"`
}

// IsModerator 版主及以上（含管理员、超级管理员）
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin || u.IsSuperuser
}

// IsAdmin 管理员或超级管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}
