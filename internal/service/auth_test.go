package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/authcode"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/testutil"
)

// captureMailer 记录最近一次发送的确认码
type captureMailer struct {
	codes map[string]string
}

func (m *captureMailer) SendConfirmationCode(_ context.Context, _, username, code string) error {
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[username] = code
	return nil
}

func newAuth(t *testing.T, store authcode.Store) (*Auth, *captureMailer) {
	t.Helper()
	repos := repository.NewRepositories(testutil.NewDB(t))
	m := &captureMailer{}
	return NewAuth(repos.User, store, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func codeStores(t *testing.T) map[string]authcode.Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisStore, err := authcode.NewRedisStore(client, "test:code", time.Minute)
	require.NoError(t, err)
	return map[string]authcode.Store{
		"redis":  redisStore,
		"memory": authcode.NewMemoryStore(time.Minute),
	}
}

func TestSignupAndConfirm(t *testing.T) {
	ctx := context.Background()
	for name, store := range codeStores(t) {
		t.Run(name, func(t *testing.T) {
			s, m := newAuth(t, store)

			user, err := s.Signup(ctx, "alice", "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			code := m.codes["alice"]
			require.NotEmpty(t, code)

			var verr *ValidationError
			_, err = s.Confirm(ctx, "alice", "000000x")
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "confirmation_code", verr.Field)

			confirmed, err := s.Confirm(ctx, "alice", code)
			require.NoError(t, err)
			assert.Equal(t, user.ID, confirmed.ID)

			// 确认码只能使用一次
			_, err = s.Confirm(ctx, "alice", code)
			assert.ErrorIs(t, err, authcode.ErrInvalidCode)
		})
	}
}

func TestSignupReissueRequiresMatchingEmail(t *testing.T) {
	ctx := context.Background()
	s, m := newAuth(t, authcode.NewMemoryStore(time.Minute))

	_, err := s.Signup(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	first := m.codes["alice"]

	_, err = s.Signup(ctx, "alice", "alice@example.com")
	require.NoError(t, err)
	second := m.codes["alice"]

	if first != second {
		_, err = s.Confirm(ctx, "alice", first)
		assert.ErrorIs(t, err, authcode.ErrInvalidCode)
	}

	_, err = s.Signup(ctx, "alice", "other@example.com")
	assert.ErrorIs(t, err, ErrEmailMismatch)

	var verr *ValidationError
	_, err = s.Signup(ctx, "bob", "alice@example.com")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = s.Signup(ctx, "me", "me@example.com")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)

	_, err = s.Confirm(ctx, "alice", second)
	require.NoError(t, err)
}

func TestConfirmUnknownUser(t *testing.T) {
	s, _ := newAuth(t, authcode.NewMemoryStore(time.Minute))
	_, err := s.Confirm(context.Background(), "ghost", "123456")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
