package authcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript 仅当存储的哈希仍是校验时读到的那一个时才删除
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore 基于 Redis 的确认码存储，多实例部署时使用
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore 创建 Redis 确认码存储
func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("confirmation code store requires a redis client")
	}
	if ttl <= 0 {
		return nil, errors.New("confirmation code ttl must be positive")
	}
	if keyPrefix == "" {
		keyPrefix = "yamdb:auth:code"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}, nil
}

func (s *RedisStore) Issue(ctx context.Context, username string) (string, error) {
	code, hash, err := newCode()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(username), hash, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store confirmation code: %w", err)
	}
	return code, nil
}

func (s *RedisStore) Verify(ctx context.Context, username, code string) error {
	key := s.key(username)
	hash, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("load confirmation code: %w", err)
	}
	if !matches(hash, code) {
		return ErrInvalidCode
	}
	// 只有成功删除的一方视为验证通过；期间被重新签发时旧码作废，新码保留
	consumed, err := s.consume(ctx, key, hash)
	if err != nil {
		return err
	}
	if !consumed {
		return ErrInvalidCode
	}
	return nil
}

func (s *RedisStore) consume(ctx context.Context, key string, hash []byte) (bool, error) {
	deleted, err := consumeScript.Run(ctx, s.client, []string{key}, hash).Int64()
	if err != nil {
		return false, fmt.Errorf("consume confirmation code: %w", err)
	}
	return deleted > 0, nil
}

func (s *RedisStore) key(username string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, normalizeUsername(username))
}
