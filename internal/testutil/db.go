// Package testutil 提供测试用的内存数据库
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB 创建独立的 SQLite 内存库并完成迁移，测试结束自动关闭
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

// SeedUser 创建一个测试用户
func SeedUser(t *testing.T, db *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SeedTitle 创建一个测试作品
func SeedTitle(t *testing.T, db *gorm.DB, name string, year int) *model.Title {
	t.Helper()
	title := &model.Title{Name: name, Year: year}
	require.NoError(t, db.Omit("Category").Create(title).Error)
	return title
}
