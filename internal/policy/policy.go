// Package policy 访问控制：根据 (操作者, 操作, 目标资源) 判断是否允许，纯函数，不访问存储
package policy

import (
	"errors"

	"github.com/user/yamdb/internal/model"
)

var (
	// ErrUnauthenticated 未登录（401）
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrForbidden 已登录但无权限（403）
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// Operation 操作类型
type Operation int

const (
	List Operation = iota
	Retrieve
	Create
	Update
	Delete
)

// Safe 只读操作
func (o Operation) Safe() bool {
	return o == List || o == Retrieve
}

func (o Operation) String() string {
	switch o {
	case List:
		return "list"
	case Retrieve:
		return "retrieve"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Actor 操作者，零值即匿名用户
type Actor struct {
	Authenticated bool
	UserID        uint
	Role          model.Role
	Superuser     bool
}

// Anonymous 匿名操作者
func Anonymous() Actor {
	return Actor{}
}

// ActorFor 由用户构造操作者，nil 视为匿名
func ActorFor(u *model.User) Actor {
	if u == nil {
		return Anonymous()
	}
	return Actor{Authenticated: true, UserID: u.ID, Role: u.Role, Superuser: u.IsSuperuser}
}

// IsModerator 版主、管理员或超级管理员
func (a Actor) IsModerator() bool {
	return a.Authenticated && (a.Role == model.RoleModerator || a.Role == model.RoleAdmin || a.Superuser)
}

// IsAdmin 管理员或超级管理员
func (a Actor) IsAdmin() bool {
	return a.Authenticated && (a.Role == model.RoleAdmin || a.Superuser)
}

// Resource 目标资源。Exists 为 false 表示集合级操作（列表、创建）
type Resource struct {
	Exists   bool
	AuthorID uint
}

// Collection 集合级资源
func Collection() Resource {
	return Resource{}
}

// OwnedBy 由 authorID 拥有的已存在资源
func OwnedBy(authorID uint) Resource {
	return Resource{Exists: true, AuthorID: authorID}
}

func (r Resource) authoredBy(a Actor) bool {
	return r.Exists && a.Authenticated && r.AuthorID == a.UserID
}

// Policy 权限策略
type Policy interface {
	Allow(a Actor, op Operation, res Resource) error
}

// deny 匿名返回 401，已登录返回 403
func deny(a Actor) error {
	if !a.Authenticated {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// AnonymousRead 只允许只读操作
type AnonymousRead struct{}

func (AnonymousRead) Allow(a Actor, op Operation, _ Resource) error {
	if op.Safe() {
		return nil
	}
	return deny(a)
}

// AuthenticatedGeneral 读操作开放；写操作需登录，修改已有资源需为作者，版主和管理员不受此限
type AuthenticatedGeneral struct{}

func (AuthenticatedGeneral) Allow(a Actor, op Operation, res Resource) error {
	if op.Safe() {
		return nil
	}
	if !a.Authenticated {
		return ErrUnauthenticated
	}
	if !res.Exists || a.IsModerator() || res.authoredBy(a) {
		return nil
	}
	return ErrForbidden
}

// ModerationRequired 读操作开放；创建需登录；修改和删除需版主及以上，
// AuthorshipSubstitutes 为 true 时作者本人也可以
type ModerationRequired struct {
	AuthorshipSubstitutes bool
}

func (p ModerationRequired) Allow(a Actor, op Operation, res Resource) error {
	if op.Safe() {
		return nil
	}
	if !a.Authenticated {
		return ErrUnauthenticated
	}
	if op == Create || a.IsModerator() {
		return nil
	}
	if p.AuthorshipSubstitutes && res.authoredBy(a) {
		return nil
	}
	return ErrForbidden
}

// AdminOnly 所有操作（含只读）都需要管理员
type AdminOnly struct{}

func (AdminOnly) Allow(a Actor, _ Operation, _ Resource) error {
	if a.IsAdmin() {
		return nil
	}
	return deny(a)
}

// AdminWrite 读操作开放，写操作需要管理员
type AdminWrite struct{}

func (AdminWrite) Allow(a Actor, op Operation, _ Resource) error {
	if op.Safe() || a.IsAdmin() {
		return nil
	}
	return deny(a)
}

// SuperuserOnly 所有操作都需要超级管理员
type SuperuserOnly struct{}

func (SuperuserOnly) Allow(a Actor, _ Operation, _ Resource) error {
	if a.Authenticated && a.Superuser {
		return nil
	}
	return deny(a)
}

// Self 只能查看和修改自己的资料
type Self struct{}

func (Self) Allow(a Actor, op Operation, res Resource) error {
	if !a.Authenticated {
		return ErrUnauthenticated
	}
	if (op == Retrieve || op == Update) && res.authoredBy(a) {
		return nil
	}
	return ErrForbidden
}

// Kind 资源种类
type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"
	KindProfile  Kind = "profile"
)

var bindings = map[Kind]Policy{
	KindCategory: AdminWrite{},
	KindGenre:    AdminWrite{},
	KindTitle:    AdminWrite{},
	KindReview:   AuthenticatedGeneral{},
	KindComment:  AuthenticatedGeneral{},
	KindUser:     AdminOnly{},
	KindProfile:  Self{},
}

// For 返回资源种类绑定的策略，未知种类只允许超级管理员
func For(kind Kind) Policy {
	if p, ok := bindings[kind]; ok {
		return p
	}
	return SuperuserOnly{}
}

// Check 便捷方法：For(kind).Allow(...)
func Check(kind Kind, a Actor, op Operation, res Resource) error {
	return For(kind).Allow(a, op, res)
}
