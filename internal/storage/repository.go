package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/garyellow/nchu-course-helper/internal/course"
)

// CareerCount summarizes the cached rows of one career.
type CareerCount struct {
	Career   string    `json:"career"`
	Count    int       `json:"count"`
	CachedAt time.Time `json:"cachedAt"`
}

// ReplaceCareer atomically replaces every cached course of career with
// courses, keeping their order.
func (db *DB) ReplaceCareer(ctx context.Context, career string, courses []course.Course) error {
	career = strings.ToUpper(career)

	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE career = ?`, career); err != nil {
		return fmt.Errorf("failed to clear career %s: %w", career, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO courses (career, position, code, payload, cached_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	cachedAt := time.Now().Unix()
	for i := range courses {
		payload, err := json.Marshal(&courses[i])
		if err != nil {
			return fmt.Errorf("failed to marshal course %s: %w", courses[i].Code, err)
		}
		if _, err := stmt.ExecContext(ctx, career, i, courses[i].Code, string(payload), cachedAt); err != nil {
			return fmt.Errorf("failed to save course %s: %w", courses[i].Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit career %s: %w", career, err)
	}
	return nil
}

// LoadCourses returns every cached course. Careers listed in careerOrder come
// first in that order, any others follow sorted by code; within a career the
// fetch order is kept. Later duplicates of a course code are dropped.
func (db *DB) LoadCourses(ctx context.Context, careerOrder []string) ([]course.Course, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT career, code, payload FROM courses ORDER BY career, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byCareer := make(map[string][]course.Course)
	for rows.Next() {
		var career, code, payload string
		if err := rows.Scan(&career, &code, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		var c course.Course
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("failed to decode course %s: %w", code, err)
		}
		byCareer[career] = append(byCareer[career], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	order := careerSequence(careerOrder, byCareer)

	total := 0
	for _, list := range byCareer {
		total += len(list)
	}
	out := make([]course.Course, 0, total)
	seen := make(map[string]struct{}, total)
	for _, career := range order {
		for _, c := range byCareer[career] {
			if _, dup := seen[c.Code]; dup {
				continue
			}
			seen[c.Code] = struct{}{}
			out = append(out, c)
		}
	}
	return out, nil
}

func careerSequence(preferred []string, present map[string][]course.Course) []string {
	order := make([]string, 0, len(present))
	listed := make(map[string]struct{}, len(preferred))
	for _, code := range preferred {
		code = strings.ToUpper(code)
		if _, dup := listed[code]; dup {
			continue
		}
		listed[code] = struct{}{}
		if _, ok := present[code]; ok {
			order = append(order, code)
		}
	}

	var rest []string
	for code := range present {
		if _, ok := listed[code]; !ok {
			rest = append(rest, code)
		}
	}
	slices.Sort(rest)
	return append(order, rest...)
}

// CountCourses returns the number of cached rows.
func (db *DB) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// CountByCareer returns per-career row counts and cache times, sorted by career.
func (db *DB) CountByCareer(ctx context.Context) ([]CareerCount, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT career, COUNT(*), MAX(cached_at) FROM courses GROUP BY career ORDER BY career`)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses by career: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CareerCount
	for rows.Next() {
		var (
			cc       CareerCount
			cachedAt sql.NullInt64
		)
		if err := rows.Scan(&cc.Career, &cc.Count, &cachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan career count: %w", err)
		}
		if cachedAt.Valid {
			cc.CachedAt = time.Unix(cachedAt.Int64, 0)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// DeleteExpired removes rows cached more than ttl ago. A non-positive ttl
// uses the database's configured TTL.
func (db *DB) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = db.cacheTTL
	}
	cutoff := time.Now().Add(-ttl).Unix()

	res, err := db.writer.ExecContext(ctx, `DELETE FROM courses WHERE cached_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired courses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted courses: %w", err)
	}
	return n, nil
}

