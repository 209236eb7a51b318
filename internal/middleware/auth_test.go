package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

const secret = "test-secret"

type stubUsers map[uint]*model.User

func (s stubUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type failingUsers struct{ err error }

func (f failingUsers) FindByID(context.Context, uint) (*model.User, error) {
	return nil, f.err
}

type ctxUsers struct{ user *model.User }

func (u ctxUsers) FindByID(ctx context.Context, _ uint) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.user, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) bool { return false }

func newEngine(users UserLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(secret, users))
	r.GET("/whoami", func(c *gin.Context) {
		actor := Actor(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": actor.Authenticated, "role": string(actor.Role)})
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username})
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signed(t *testing.T, claims *Claims, method jwt.SigningMethod) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthenticateAnonymous(t *testing.T) {
	r := newEngine(stubUsers{})

	w := get(r, "/whoami", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false,"role":""}`, w.Body.String())

	w = get(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateValidToken(t *testing.T) {
	user := &model.User{ID: 7, Username: "alice", Role: model.RoleModerator}
	r := newEngine(stubUsers{7: user})

	token, err := GenerateToken(user, secret, time.Hour)
	require.NoError(t, err)

	w := get(r, "/whoami", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"role":"moderator"}`, w.Body.String())
	assert.Empty(t, w.Header().Get(refreshTokenHeader))

	w = get(r, "/private", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"alice"}`, w.Body.String())
}

func TestAuthenticateRejects(t *testing.T) {
	user := &model.User{ID: 7, Username: "alice", Role: model.RoleUser}
	r := newEngine(stubUsers{7: user})

	deleted, err := GenerateToken(&model.User{ID: 99, Username: "ghost"}, secret, time.Hour)
	require.NoError(t, err)
	foreign, err := GenerateToken(user, "other-secret", time.Hour)
	require.NoError(t, err)
	expired := signed(t, &Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, jwt.SigningMethodHS256)
	wrongAlg := signed(t, &Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, jwt.SigningMethodHS512)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"unknown user", deleted},
		{"wrong secret", foreign},
		{"expired", expired},
		{"wrong algorithm", wrongAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/whoami", tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthenticateLookupFailureIsServerError(t *testing.T) {
	user := &model.User{ID: 7, Username: "alice", Role: model.RoleUser}
	r := newEngine(failingUsers{err: errors.New("connection refused")})

	token, err := GenerateToken(user, secret, time.Hour)
	require.NoError(t, err)

	w := get(r, "/whoami", token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthenticateLookupIgnoresCancellation(t *testing.T) {
	user := &model.User{ID: 7, Username: "alice", Role: model.RoleUser}
	r := newEngine(ctxUsers{user: user})

	token, err := GenerateToken(user, secret, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":true,"role":"user"}`, w.Body.String())
}

func TestAuthenticateSlidingRefresh(t *testing.T) {
	user := &model.User{ID: 7, Username: "alice", Role: model.RoleUser}
	r := newEngine(stubUsers{7: user})

	token := signed(t, &Claims{
		UserID:   7,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-50 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
		},
	}, jwt.SigningMethodHS256)

	w := get(r, "/whoami", token)
	require.Equal(t, http.StatusOK, w.Code)
	refreshed := w.Header().Get(refreshTokenHeader)
	require.NotEmpty(t, refreshed)

	claims, err := parseClaims(refreshed, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/limited", RateLimit(denyAll{}, "auth"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/limited", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := get(r, "/id", "")
	generated := w.Header().Get(requestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(requestIDHeader, "fixed")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed", w.Body.String())
}
