// Package authcode 注册确认码：独立于账号密码的一次性凭证，只保存 bcrypt 哈希，带过期时间
package authcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const codeLength = 6

// ErrInvalidCode 确认码错误、已过期或已使用
var ErrInvalidCode = errors.New("invalid or expired confirmation code")

// Store 确认码存储。Issue 会覆盖该用户之前的确认码，Verify 成功后确认码立即失效
type Store interface {
	Issue(ctx context.Context, username string) (string, error)
	Verify(ctx context.Context, username, code string) error
}

// newCode 生成确认码及其哈希
func newCode() (code string, hash []byte, err error) {
	code, err = generateNumericCode(codeLength)
	if err != nil {
		return "", nil, fmt.Errorf("generate confirmation code: %w", err)
	}
	hash, err = bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash confirmation code: %w", err)
	}
	return code, hash, nil
}

func matches(hash []byte, code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(code)) == nil
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func generateNumericCode(length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
