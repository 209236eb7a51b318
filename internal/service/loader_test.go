package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/testutil"
	"gorm.io/gorm"
)

var fixtureCSV = map[string]string{
	"users.csv": `id,username,email,role,bio,first_name,last_name
100,bingobongo,bingobongo@yamdb.fake,user,,,
101,capt_obvious,capt_obvious@yamdb.fake,admin,,Капитан,
102,reviewer,reviewer@yamdb.fake,overlord,,,
`,
	"category.csv": `id,name,slug
1,Фильм,movie
2,Книга,book
`,
	"genre.csv": `id,name,slug
1,Драма,drama
2,Комедия,comedy
`,
	"titles.csv": `id,name,year,category
1,Побег из Шоушенка,1994,1
2,Крестный отец,1972,1
3,Ancient scroll,-300,2
4,Orphan,2001,99
5,Future film,3000,
`,
	"genre_title.csv": `id,title_id,genre_id
1,1,1
2,2,1
3,2,2
4,4,1
`,
	"review.csv": `id,title_id,text,author,score,pub_date
1,1,Ничего не понял,100,10,2019-09-24T21:08:21.567Z
2,1,Great,101,42,
3,2,Fine,100,7,not-a-date
4,1,Ghost author,999,5,2019-09-24T21:08:21.567Z
`,
	"comments.csv": `id,review_id,text,author,pub_date
1,1,Согласен,101,2019-09-24T21:08:21.567Z
2,77,Orphan comment,101,2019-09-24T21:08:21.567Z
`,
}

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newLoader(t *testing.T) (*Loader, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	l := NewLoader(repository.NewRepositories(db), slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return l, db
}

func count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestLoadFixture(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)
	dir := writeFixture(t, fixtureCSV)

	report, err := l.Load(ctx, LoadOptions{Dir: dir, Purge: true})
	require.NoError(t, err)

	assert.Equal(t, StageReport{Stage: "users", Loaded: 3}, report.Stage("users"))
	assert.Equal(t, StageReport{Stage: "titles", Loaded: 4, Skipped: 1}, report.Stage("titles"))
	assert.Equal(t, StageReport{Stage: "genre_titles", Loaded: 3, Skipped: 1}, report.Stage("genre_titles"))
	assert.Equal(t, StageReport{Stage: "reviews", Loaded: 3, Skipped: 1}, report.Stage("reviews"))
	assert.Equal(t, StageReport{Stage: "comments", Loaded: 1, Skipped: 1}, report.Stage("comments"))

	assert.EqualValues(t, 4, count(t, db, "titles"))
	assert.EqualValues(t, 3, count(t, db, "reviews"))
}

func TestLoadSanitizesFields(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)
	dir := writeFixture(t, fixtureCSV)

	_, err := l.Load(ctx, LoadOptions{Dir: dir})
	require.NoError(t, err)

	var ancient, future model.Title
	require.NoError(t, db.First(&ancient, 3).Error)
	require.NoError(t, db.First(&future, 5).Error)
	assert.Equal(t, MinYear, ancient.Year)
	assert.Equal(t, 2024, future.Year)
	assert.Nil(t, future.CategoryID)

	var outOfRange, badDate model.Review
	require.NoError(t, db.First(&outOfRange, 2).Error)
	require.NoError(t, db.First(&badDate, 3).Error)
	assert.Equal(t, DefaultScore, outOfRange.Score)
	assert.True(t, outOfRange.PubDate.Equal(l.now()))
	assert.True(t, badDate.PubDate.Equal(l.now()))

	var first model.Review
	require.NoError(t, db.First(&first, 1).Error)
	assert.True(t, first.PubDate.Equal(time.Date(2019, 9, 24, 21, 8, 21, 567000000, time.UTC)))

	var unknownRole model.User
	require.NoError(t, db.First(&unknownRole, 102).Error)
	assert.Equal(t, model.RoleUser, unknownRole.Role)
}

func TestLoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)
	dir := writeFixture(t, fixtureCSV)

	snapshot := func() map[string]int64 {
		out := map[string]int64{}
		for _, table := range []string{"users", "categories", "genres", "titles", "genre_titles", "reviews", "comments"} {
			out[table] = count(t, db, table)
		}
		return out
	}

	_, err := l.Load(ctx, LoadOptions{Dir: dir})
	require.NoError(t, err)
	before := snapshot()

	var review model.Review
	require.NoError(t, db.First(&review, 1).Error)

	_, err = l.Load(ctx, LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, before, snapshot())

	var again model.Review
	require.NoError(t, db.First(&again, 1).Error)
	assert.Equal(t, review.Text, again.Text)
	assert.True(t, review.PubDate.Equal(again.PubDate))
}

func TestLoadWithPurgeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)
	dir := writeFixture(t, fixtureCSV)

	snapshot := func() map[string]int64 {
		out := map[string]int64{}
		for _, table := range []string{"users", "categories", "genres", "titles", "genre_titles", "reviews", "comments"} {
			out[table] = count(t, db, table)
		}
		return out
	}
	load := func() (*LoadReport, []model.User, []model.Title, []model.Review) {
		report, err := l.Load(ctx, LoadOptions{Dir: dir, Purge: true})
		require.NoError(t, err)
		var users []model.User
		var titles []model.Title
		var reviews []model.Review
		require.NoError(t, db.Order("id").Find(&users).Error)
		require.NoError(t, db.Order("id").Find(&titles).Error)
		require.NoError(t, db.Order("id").Find(&reviews).Error)
		for i := range users {
			users[i].CreatedAt = time.Time{}
		}
		return report, users, titles, reviews
	}

	firstReport, firstUsers, firstTitles, firstReviews := load()
	before := snapshot()
	secondReport, secondUsers, secondTitles, secondReviews := load()

	assert.Equal(t, before, snapshot())
	assert.Equal(t, firstReport.Stages, secondReport.Stages)
	assert.Equal(t, firstUsers, secondUsers)
	assert.Equal(t, firstTitles, secondTitles)
	require.Len(t, secondReviews, len(firstReviews))
	for i := range firstReviews {
		assert.Equal(t, firstReviews[i].ID, secondReviews[i].ID)
		assert.Equal(t, firstReviews[i].Text, secondReviews[i].Text)
		assert.Equal(t, firstReviews[i].Score, secondReviews[i].Score)
		assert.Equal(t, firstReviews[i].AuthorID, secondReviews[i].AuthorID)
		assert.True(t, firstReviews[i].PubDate.Equal(secondReviews[i].PubDate))
	}
}

func TestLoadOverwritesMutableFields(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)
	dir := writeFixture(t, fixtureCSV)

	_, err := l.Load(ctx, LoadOptions{Dir: dir})
	require.NoError(t, err)

	changed := map[string]string{}
	for k, v := range fixtureCSV {
		changed[k] = v
	}
	changed["category.csv"] = "id,name,slug\n1,Кино,movie\n2,Книга,book\n"
	_, err = l.Load(ctx, LoadOptions{Dir: writeFixture(t, changed)})
	require.NoError(t, err)

	var category model.Category
	require.NoError(t, db.First(&category, 1).Error)
	assert.Equal(t, "Кино", category.Name)
	assert.EqualValues(t, 2, count(t, db, "categories"))
}

func TestLoadPurgeKeepsSuperusers(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)

	root := &model.User{Username: "root", Email: "root@example.com", Role: model.RoleAdmin, IsSuperuser: true}
	require.NoError(t, db.Create(root).Error)
	require.NoError(t, db.Create(&model.User{Username: "stale", Email: "stale@example.com"}).Error)
	require.NoError(t, db.Create(&model.Category{Name: "Old", Slug: "old"}).Error)

	_, err := l.Load(ctx, LoadOptions{Dir: writeFixture(t, fixtureCSV), Purge: true})
	require.NoError(t, err)

	var users []model.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Contains(t, names, "root")
	assert.NotContains(t, names, "stale")
	assert.EqualValues(t, 2, count(t, db, "categories"))
}

func TestLoadSkipsRowsCollidingWithSuperuser(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)

	root := &model.User{ID: 100, Username: "root", Email: "root@example.com", Role: model.RoleAdmin, IsSuperuser: true}
	require.NoError(t, db.Create(root).Error)

	report, err := l.Load(ctx, LoadOptions{Dir: writeFixture(t, fixtureCSV), Purge: true})
	require.NoError(t, err)

	var got model.User
	require.NoError(t, db.First(&got, 100).Error)
	assert.Equal(t, "root", got.Username)
	assert.Equal(t, "root@example.com", got.Email)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.True(t, got.IsSuperuser)

	var impostor int64
	require.NoError(t, db.Model(&model.User{}).Where("username = ?", "bingobongo").Count(&impostor).Error)
	assert.Zero(t, impostor)

	// 作者为 100 的评论及其回复不会挂到超级管理员名下
	assert.Equal(t, StageReport{Stage: "users", Loaded: 2, Skipped: 1}, report.Stage("users"))
	assert.Equal(t, StageReport{Stage: "reviews", Loaded: 1, Skipped: 3}, report.Stage("reviews"))
	assert.Equal(t, StageReport{Stage: "comments", Loaded: 0, Skipped: 2}, report.Stage("comments"))
	var owned int64
	require.NoError(t, db.Model(&model.Review{}).Where("author_id = ?", 100).Count(&owned).Error)
	assert.Zero(t, owned)
}

func TestLoadWithoutPurgeKeepsExistingRows(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)

	require.NoError(t, db.Create(&model.Category{ID: 50, Name: "Music", Slug: "music"}).Error)

	_, err := l.Load(ctx, LoadOptions{Dir: writeFixture(t, fixtureCSV)})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count(t, db, "categories"))
}

func TestLoadFailsFastOnMissingFile(t *testing.T) {
	ctx := context.Background()
	l, db := newLoader(t)

	require.NoError(t, db.Create(&model.Category{Name: "Keep", Slug: "keep"}).Error)

	files := map[string]string{}
	for k, v := range fixtureCSV {
		if k != "comments.csv" {
			files[k] = v
		}
	}
	_, err := l.Load(ctx, LoadOptions{Dir: writeFixture(t, files), Purge: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comments.csv")

	// 没有执行清空和导入
	assert.EqualValues(t, 1, count(t, db, "categories"))
	assert.EqualValues(t, 0, count(t, db, "users"))

	_, err = l.Load(ctx, LoadOptions{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestSanitizeScore(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"10", 10, true},
		{" 7 ", 7, true},
		{"0", DefaultScore, false},
		{"11", DefaultScore, false},
		{"", DefaultScore, false},
		{"ten", DefaultScore, false},
	}
	for _, tt := range tests {
		got, ok := sanitizeScore(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}
