package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/nchu-course-helper/internal/course"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func setCachedAt(t *testing.T, db *DB, career string, at time.Time) {
	t.Helper()
	_, err := db.writer.ExecContext(context.Background(),
		`UPDATE courses SET cached_at = ? WHERE career = ?`, at.Unix(), career)
	require.NoError(t, err)
}

func sample(code, title, career string) course.Course {
	return course.Course{
		Code:          code,
		Title:         title,
		Department:    "資訊工程學系",
		Professor:     course.MultipleProfessors("王大明", "李小華"),
		Credits:       "3",
		CreditsParsed: 3,
		Time:          course.TextList{"一 1,2"},
		TimeParsed:    []course.TimeBlock{{Day: 1, Periods: []int{1, 2}}},
		Career:        career,
	}
}

func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "nested", "catalog.db")

	ctx := context.Background()
	db, err := New(ctx, dbPath, 168*time.Hour)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file not created")
	assert.Equal(t, dbPath, db.Path())
	assert.Equal(t, 168*time.Hour, db.CacheTTL())
	require.NoError(t, db.Ping(ctx))

	require.NoError(t, db.ReplaceCareer(ctx, "U", []course.Course{sample("1001", "資料結構", "U")}))

	// Reads go through the reader pool and must see committed writes.
	n, err := db.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath, time.Hour)
	require.NoError(t, err)
	require.NoError(t, db.ReplaceCareer(ctx, "G", []course.Course{sample("7001", "機器學習", "G")}))
	require.NoError(t, db.Close())

	db, err = New(ctx, dbPath, time.Hour)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	courses, err := db.LoadCourses(ctx, nil)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "7001", courses[0].Code)
}

func TestReplaceCareer_RoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	in := sample("1001", "資料結構`Data Structures", "U")
	in.TitleParsed = &course.Title{ZH: "資料結構", EN: "Data Structures"}
	require.NoError(t, db.ReplaceCareer(ctx, "u", []course.Course{in}))

	out, err := db.LoadCourses(ctx, []string{"U"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, in.Code, got.Code)
	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.TitleParsed, got.TitleParsed)
	assert.Equal(t, []string{"王大明", "李小華"}, got.Professor.Names())
	assert.True(t, got.Professor.IsMultiple())
	assert.Equal(t, in.TimeParsed, got.TimeParsed)
	assert.Equal(t, "U", got.Career)
}

func TestReplaceCareer_Replaces(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReplaceCareer(ctx, "U", []course.Course{
		sample("1001", "A", "U"),
		sample("1002", "B", "U"),
	}))
	require.NoError(t, db.ReplaceCareer(ctx, "G", []course.Course{sample("7001", "C", "G")}))
	require.NoError(t, db.ReplaceCareer(ctx, "U", []course.Course{sample("1003", "D", "U")}))

	counts, err := db.CountByCareer(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "G", counts[0].Career)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, "U", counts[1].Career)
	assert.Equal(t, 1, counts[1].Count)
	assert.False(t, counts[1].CachedAt.IsZero())

	total, err := db.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestReplaceCareer_Empty(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReplaceCareer(ctx, "U", []course.Course{sample("1001", "A", "U")}))
	require.NoError(t, db.ReplaceCareer(ctx, "U", nil))

	total, err := db.CountCourses(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestLoadCourses_OrderAndDedup(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReplaceCareer(ctx, "D", []course.Course{sample("9001", "D1", "D")}))
	require.NoError(t, db.ReplaceCareer(ctx, "G", []course.Course{
		sample("7002", "G2", "G"),
		sample("7001", "G1", "G"),
		sample("1001", "dup of U", "G"),
	}))
	require.NoError(t, db.ReplaceCareer(ctx, "U", []course.Course{
		sample("1002", "U2", "U"),
		sample("1001", "U1", "U"),
	}))
	require.NoError(t, db.ReplaceCareer(ctx, "O", []course.Course{sample("3001", "O1", "O")}))

	out, err := db.LoadCourses(ctx, []string{"U", "G"})
	require.NoError(t, err)

	var codes []string
	for _, c := range out {
		codes = append(codes, c.Code)
	}
	// U then G in configured order, unlisted careers D and O sorted after.
	assert.Equal(t, []string{"1002", "1001", "7002", "7001", "9001", "3001"}, codes)
	assert.Equal(t, "U1", out[1].Title, "first occurrence wins")
}

func TestLoadCourses_EmptyDB(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	out, err := db.LoadCourses(context.Background(), []string{"U"})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
}

func TestDeleteExpired(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ReplaceCareer(ctx, "U", []course.Course{sample("1001", "A", "U"), sample("1002", "B", "U")}))
	require.NoError(t, db.ReplaceCareer(ctx, "G", []course.Course{sample("7001", "C", "G")}))
	setCachedAt(t, db, "U", time.Now().Add(-200*time.Hour))

	n, err := db.DeleteExpired(ctx, 0) // configured 168h
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = db.DeleteExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	total, err := db.CountCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestReplaceCareer_ContextCanceled(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.ReplaceCareer(ctx, "U", []course.Course{sample("1001", "A", "U")}))

	total, err := db.CountCourses(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}
