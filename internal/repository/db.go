package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/user/yamdb/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Page 分页参数（limit/offset），Limit <= 0 表示不分页
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

// InitDB 初始化数据库连接并执行自动迁移
func InitDB(driver, databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		dialector = postgres.Open(databaseURL)
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库连接失败: %w", err)
	}

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	// 设置连接池
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate 按依赖顺序自动迁移所有表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Genre{},
		&model.Title{},
		&model.GenreTitle{},
		&model.Review{},
		&model.Comment{},
	); err != nil {
		return fmt.Errorf("自动迁移失败: %w", err)
	}
	return nil
}

// Repositories 仓库集合
type Repositories struct {
	DB         *gorm.DB
	User       *UserRepository
	Category   *CategoryRepository
	Genre      *GenreRepository
	Title      *TitleRepository
	GenreTitle *GenreTitleRepository
	Review     *ReviewRepository
	Comment    *CommentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:         db,
		User:       NewUserRepository(db),
		Category:   NewCategoryRepository(db),
		Genre:      NewGenreRepository(db),
		Title:      NewTitleRepository(db),
		GenreTitle: NewGenreTitleRepository(db),
		Review:     NewReviewRepository(db),
		Comment:    NewCommentRepository(db),
	}
}

// Exists 判断指定表中是否存在该 ID
func (r *Repositories) Exists(ctx context.Context, table string, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Table(table).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ResetSequences 显式写入 ID 后同步 PostgreSQL 自增序列，其他数据库无需处理
func (r *Repositories) ResetSequences(ctx context.Context, tables ...string) error {
	if r.DB.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		err := r.DB.WithContext(ctx).Exec(fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table,
		)).Error
		if err != nil {
			return fmt.Errorf("重置 %s 序列失败: %w", table, err)
		}
	}
	return nil
}

func allRows(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true})
}
