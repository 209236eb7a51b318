package authcode

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore 进程内确认码存储，未配置 Redis 时使用
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore 创建进程内确认码存储
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (s *MemoryStore) Issue(_ context.Context, username string) (string, error) {
	code, hash, err := newCode()
	if err != nil {
		return "", err
	}
	s.cache.Set(normalizeUsername(username), hash, s.ttl)
	return code, nil
}

func (s *MemoryStore) Verify(_ context.Context, username, code string) error {
	key := normalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(key)
	if !ok {
		return ErrInvalidCode
	}
	hash, ok := v.([]byte)
	if !ok || !matches(hash, code) {
		return ErrInvalidCode
	}
	s.cache.Delete(key)
	return nil
}
