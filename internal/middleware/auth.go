package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/policy"
	"github.com/user/yamdb/internal/ratelimit"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/utils"
	"golang.org/x/sync/singleflight"
)

const (
	currentUserKey     = "current_user"
	refreshTokenHeader = "X-Refresh-Token"
)

// Claims JWT 声明
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserLoader 按 ID 加载用户
type UserLoader interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate 解析 Bearer Token 并加载用户。未携带 Token 视为匿名；Token 无效或用户不存在返回 401
func Authenticate(jwtSecret string, users UserLoader) gin.HandlerFunc {
	var group singleflight.Group

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := parseClaims(tokenString, jwtSecret)
		if err != nil {
			utils.Unauthorized(c, "令牌无效或已过期")
			c.Abort()
			return
		}

		// 同一用户的并发请求只查询一次数据库；查询不随首个请求取消
		ctx := context.WithoutCancel(c.Request.Context())
		v, err, _ := group.Do(strconv.FormatUint(uint64(claims.UserID), 10), func() (interface{}, error) {
			return users.FindByID(ctx, claims.UserID)
		})
		if errors.Is(err, repository.ErrNotFound) {
			utils.Unauthorized(c, "用户不存在")
			c.Abort()
			return
		}
		if err != nil {
			utils.InternalServerError(c, "")
			c.Abort()
			return
		}
		c.Set(currentUserKey, v.(*model.User))

		// 滑动续期：有效期消耗过半时在响应头返回新 Token
		if shouldRefresh(claims) {
			expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
			if newToken, err := GenerateToken(v.(*model.User), jwtSecret, expiry); err == nil {
				c.Header(refreshTokenHeader, newToken)
			}
		}

		c.Next()
	}
}

// RequireAuth 必须登录
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			utils.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 当前登录用户，匿名返回 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, exists := c.Get(currentUserKey); exists {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// Actor 当前请求的操作者
func Actor(c *gin.Context) policy.Actor {
	return policy.ActorFor(CurrentUser(c))
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

func parseClaims(tokenString, jwtSecret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GenerateToken 生成 JWT Token
func GenerateToken(user *model.User, jwtSecret string, expiry time.Duration) (string, error) {
	if user == nil {
		return "", errors.New("user is required")
	}
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// shouldRefresh 判断是否需要刷新 Token
// 逻辑：如果已经消耗了总有效期的 50% 以上，则建议刷新
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}

	totalDuration := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	elapsedDuration := time.Since(claims.IssuedAt.Time)

	return elapsedDuration > totalDuration/2
}

// RateLimit 按客户端 IP 限流
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP()) {
			utils.Error(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
