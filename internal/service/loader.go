package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// DefaultScore 导入时超出 1..10 或无法解析的分数替换为该值
const DefaultScore = model.MinScore

// MinYear 导入时低于该值的年份被修正为该值
const MinYear = 1

// RequiredFiles 导入所需的数据文件，缺任何一个都不会开始导入
var RequiredFiles = []string{
	"users.csv",
	"category.csv",
	"genre.csv",
	"titles.csv",
	"genre_title.csv",
	"review.csv",
	"comments.csv",
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var errMissingReference = errors.New("referenced record does not exist")

// LoadOptions 导入参数
type LoadOptions struct {
	Dir   string
	Purge bool
}

// StageReport 单个阶段的导入结果
type StageReport struct {
	Stage   string
	Loaded  int
	Skipped int
}

// LoadReport 导入结果
type LoadReport struct {
	Purged bool
	Stages []StageReport
}

// Stage 按名称查找阶段结果
func (r *LoadReport) Stage(name string) StageReport {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s
		}
	}
	return StageReport{Stage: name}
}

// Loader 从 CSV 文件批量导入数据。按 ID upsert，可重复执行
type Loader struct {
	repos  *repository.Repositories
	logger *slog.Logger
	now    func() time.Time

	known *lru.Cache[string, bool]
}

// NewLoader 创建导入器
func NewLoader(repos *repository.Repositories, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{repos: repos, logger: logger, now: time.Now}
}

type loadStage struct {
	name  string
	file  string
	table string
	load  func(ctx context.Context, rec record) error
}

// stages 导入顺序：用户、分类、类型、作品、作品类型、评论、回复
func (l *Loader) stages() []loadStage {
	return []loadStage{
		{name: "users", file: "users.csv", table: "users", load: l.loadUser},
		{name: "categories", file: "category.csv", table: "categories", load: l.loadCategory},
		{name: "genres", file: "genre.csv", table: "genres", load: l.loadGenre},
		{name: "titles", file: "titles.csv", table: "titles", load: l.loadTitle},
		{name: "genre_titles", file: "genre_title.csv", table: "genre_titles", load: l.loadGenreTitle},
		{name: "reviews", file: "review.csv", table: "reviews", load: l.loadReview},
		{name: "comments", file: "comments.csv", table: "comments", load: l.loadComment},
	}
}

// CheckFiles 检查数据目录和全部数据文件是否存在
func CheckFiles(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("data files directory %q does not exist", dir)
	}
	for _, name := range RequiredFiles {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return fmt.Errorf("data file %q does not exist", path)
		}
	}
	return nil
}

// Load 执行导入。文件缺失时直接返回错误，不做任何修改；单条记录失败只记录日志并跳过
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (*LoadReport, error) {
	if err := CheckFiles(opts.Dir); err != nil {
		return nil, err
	}

	known, err := lru.New[string, bool](4096)
	if err != nil {
		return nil, err
	}
	l.known = known

	report := &LoadReport{Purged: opts.Purge}
	if opts.Purge {
		if err := l.Purge(ctx); err != nil {
			return nil, fmt.Errorf("purge: %w", err)
		}
	}

	tables := make([]string, 0, len(RequiredFiles))
	for _, st := range l.stages() {
		stageReport, err := l.runStage(ctx, opts.Dir, st)
		if err != nil {
			return report, fmt.Errorf("stage %s: %w", st.name, err)
		}
		report.Stages = append(report.Stages, stageReport)
		tables = append(tables, st.table)
		l.logger.InfoContext(ctx, "stage loaded",
			"stage", st.name, "loaded", stageReport.Loaded, "skipped", stageReport.Skipped)
	}

	if err := l.repos.ResetSequences(ctx, tables...); err != nil {
		return report, err
	}
	return report, nil
}

// Purge 按依赖逆序清空数据，保留超级管理员
func (l *Loader) Purge(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) (int64, error)
	}{
		{"comments", l.repos.Comment.DeleteAll},
		{"reviews", l.repos.Review.DeleteAll},
		{"genre_titles", l.repos.GenreTitle.DeleteAll},
		{"titles", l.repos.Title.DeleteAll},
		{"genres", l.repos.Genre.DeleteAll},
		{"categories", l.repos.Category.DeleteAll},
		{"users", l.repos.User.DeleteNonSuperusers},
	}
	for _, step := range steps {
		n, err := step.fn(ctx)
		if err != nil {
			return fmt.Errorf("purge %s: %w", step.name, err)
		}
		l.logger.InfoContext(ctx, "table purged", "table", step.name, "rows", n)
	}
	if l.known != nil {
		l.known.Purge()
	}
	return nil
}

func (l *Loader) runStage(ctx context.Context, dir string, st loadStage) (StageReport, error) {
	report := StageReport{Stage: st.name}

	f, err := os.Open(filepath.Join(dir, st.file))
	if err != nil {
		return report, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("read header: %w", err)
	}
	columns := normalizeHeader(header)

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return report, err
			}
			l.logger.WarnContext(ctx, "record skipped", "stage", st.name, "line", line, "error", err)
			report.Skipped++
			continue
		}

		rec := newRecord(columns, fields, line)
		if err := st.load(ctx, rec); err != nil {
			l.logger.WarnContext(ctx, "record skipped",
				"stage", st.name, "line", line, "id", rec.str("id"), "error", err)
			if errors.Is(err, repository.ErrProtected) {
				// 依赖该记录的后续行同样跳过
				l.forget(st.table, rec.str("id"))
			}
			report.Skipped++
			continue
		}
		l.remember(st.table, rec.str("id"))
		report.Loaded++
	}
	return report, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return columns
}

type record struct {
	line   int
	fields map[string]string
}

func newRecord(columns, values []string, line int) record {
	fields := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(values) {
			fields[col] = values[i]
		}
	}
	return record{line: line, fields: fields}
}

func (r record) str(col string) string {
	return strings.TrimSpace(r.fields[col])
}

func (r record) id(col string) (uint, error) {
	v := r.str(col)
	if v == "" {
		return 0, fmt.Errorf("%s is required", col)
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%s %q is not a valid id", col, v)
	}
	return uint(n), nil
}

func cacheKey(table, id string) string {
	return table + ":" + id
}

func (l *Loader) remember(table, id string) {
	if l.known != nil {
		l.known.Add(cacheKey(table, id), true)
	}
}

func (l *Loader) forget(table, id string) {
	if l.known != nil {
		l.known.Add(cacheKey(table, id), false)
	}
}

// exists 检查外键目标是否存在，结果在本次导入内缓存
func (l *Loader) exists(ctx context.Context, table string, id uint) (bool, error) {
	key := cacheKey(table, strconv.FormatUint(uint64(id), 10))
	if l.known != nil {
		if ok, hit := l.known.Get(key); hit {
			return ok, nil
		}
	}
	ok, err := l.repos.Exists(ctx, table, id)
	if err != nil {
		return false, err
	}
	if l.known != nil {
		l.known.Add(key, ok)
	}
	return ok, nil
}

func (l *Loader) requireRef(ctx context.Context, rec record, col, table string) (uint, error) {
	id, err := rec.id(col)
	if err != nil {
		return 0, err
	}
	ok, err := l.exists(ctx, table, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s %d", errMissingReference, col, id)
	}
	return id, nil
}

// sanitizeYear 低于下限修正为下限，晚于今年修正为今年
func (l *Loader) sanitizeYear(year int) int {
	if year < MinYear {
		return MinYear
	}
	if current := l.now().Year(); year > current {
		return current
	}
	return year
}

// sanitizeScore 无法解析或超出范围时使用默认分数
func sanitizeScore(raw string) (int, bool) {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || score < model.MinScore || score > model.MaxScore {
		return DefaultScore, false
	}
	return score, true
}

// parseTimestamp 空值或无法解析时使用当前时间
func (l *Loader) parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return l.now().UTC(), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return l.now().UTC(), false
}

func (l *Loader) loadUser(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	username := rec.str("username")
	email := strings.ToLower(rec.str("email"))
	if username == "" || email == "" {
		return errors.New("username and email are required")
	}
	existing, err := l.repos.User.FindByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil && existing.IsSuperuser {
		return fmt.Errorf("%w: id %d belongs to superuser %q", repository.ErrProtected, id, existing.Username)
	}
	role, ok := model.ParseRole(rec.str("role"))
	if !ok {
		l.logger.WarnContext(ctx, "unknown role, using default",
			"line", rec.line, "role", rec.str("role"), "default", model.RoleUser)
	}
	return l.repos.User.Upsert(ctx, &model.User{
		ID:        id,
		Username:  username,
		Email:     email,
		Role:      role,
		Bio:       rec.str("bio"),
		FirstName: rec.str("first_name"),
		LastName:  rec.str("last_name"),
	})
}

func (l *Loader) loadCategory(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	if err := validateNameSlug(rec.str("name"), rec.str("slug")); err != nil {
		return err
	}
	return l.repos.Category.Upsert(ctx, &model.Category{ID: id, Name: rec.str("name"), Slug: rec.str("slug")})
}

func (l *Loader) loadGenre(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	if err := validateNameSlug(rec.str("name"), rec.str("slug")); err != nil {
		return err
	}
	return l.repos.Genre.Upsert(ctx, &model.Genre{ID: id, Name: rec.str("name"), Slug: rec.str("slug")})
}

func (l *Loader) loadTitle(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	name := rec.str("name")
	if name == "" {
		return errors.New("name is required")
	}
	year, err := strconv.Atoi(rec.str("year"))
	if err != nil {
		return fmt.Errorf("year %q is not a number", rec.str("year"))
	}
	if sanitized := l.sanitizeYear(year); sanitized != year {
		l.logger.WarnContext(ctx, "year clamped", "line", rec.line, "year", year, "clamped", sanitized)
		year = sanitized
	}

	title := &model.Title{ID: id, Name: name, Year: year}
	if rec.str("category") != "" {
		categoryID, err := l.requireRef(ctx, rec, "category", "categories")
		if err != nil {
			return err
		}
		title.CategoryID = &categoryID
	}
	return l.repos.Title.Upsert(ctx, title)
}

func (l *Loader) loadGenreTitle(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	titleID, err := l.requireRef(ctx, rec, "title_id", "titles")
	if err != nil {
		return err
	}
	genreID, err := l.requireRef(ctx, rec, "genre_id", "genres")
	if err != nil {
		return err
	}
	return l.repos.GenreTitle.Upsert(ctx, &model.GenreTitle{ID: id, TitleID: titleID, GenreID: genreID})
}

func (l *Loader) loadReview(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	titleID, err := l.requireRef(ctx, rec, "title_id", "titles")
	if err != nil {
		return err
	}
	authorID, err := l.requireRef(ctx, rec, "author", "users")
	if err != nil {
		return err
	}
	score, ok := sanitizeScore(rec.str("score"))
	if !ok {
		l.logger.WarnContext(ctx, "score replaced with default",
			"line", rec.line, "score", rec.str("score"), "default", DefaultScore)
	}
	pubDate, ok := l.parseTimestamp(rec.str("pub_date"))
	if !ok {
		l.logger.WarnContext(ctx, "unparseable pub_date, using current time", "line", rec.line, "pub_date", rec.str("pub_date"))
	}
	return l.repos.Review.Upsert(ctx, &model.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     rec.fields["text"],
		Score:    score,
		PubDate:  pubDate,
	})
}

func (l *Loader) loadComment(ctx context.Context, rec record) error {
	id, err := rec.id("id")
	if err != nil {
		return err
	}
	reviewID, err := l.requireRef(ctx, rec, "review_id", "reviews")
	if err != nil {
		return err
	}
	authorID, err := l.requireRef(ctx, rec, "author", "users")
	if err != nil {
		return err
	}
	pubDate, ok := l.parseTimestamp(rec.str("pub_date"))
	if !ok {
		l.logger.WarnContext(ctx, "unparseable pub_date, using current time", "line", rec.line, "pub_date", rec.str("pub_date"))
	}
	return l.repos.Comment.Upsert(ctx, &model.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     rec.fields["text"],
		PubDate:  pubDate,
	})
}
