// Package search implements the course index and its filter/paginate query.
//
// An Engine is an immutable snapshot: it is built once from an ordered course list
// and then answers any number of concurrent queries without locking. Refreshing the
// catalog means building a new Engine and swapping it in through a Holder.
package search

import (
	"slices"
	"strings"

	"github.com/garyellow/nchu-course-helper/internal/alias"
	"github.com/garyellow/nchu-course-helper/internal/course"
	"github.com/garyellow/nchu-course-helper/internal/stringutil"
)

// fold is the comparison form shared by indexed text and query terms:
// full-width ASCII narrowed, then lower-cased.
func fold(s string) string {
	return strings.ToLower(stringutil.FoldWidth(s))
}

// tokenSet is a set of folded department tokens.
type tokenSet map[string]struct{}

func (s tokenSet) intersects(terms []string) bool {
	for _, t := range terms {
		if _, ok := s[t]; ok {
			return true
		}
	}
	return false
}

func (s tokenSet) anyContains(sub string) bool {
	for t := range s {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

// IndexedCourse is a course plus the derived strings and token sets the filters use.
type IndexedCourse struct {
	course.Course

	title     string
	code      string
	professor string
	timeText  string

	offeringTokens tokenSet
	audienceTokens tokenSet
	allTokens      tokenSet
}

// Engine is a read-only index snapshot.
type Engine struct {
	table   *alias.Table
	courses []IndexedCourse
	byCode  map[string]int

	departments []string
	careers     []string
}

// NewEngine indexes courses in the given order. The caller guarantees unique codes;
// on duplicates Get returns the first occurrence. A nil table disables alias expansion.
func NewEngine(table *alias.Table, courses []course.Course) *Engine {
	if table == nil {
		table = alias.New(nil)
	}
	e := &Engine{
		table:   table,
		courses: make([]IndexedCourse, 0, len(courses)),
		byCode:  make(map[string]int, len(courses)),
	}

	depts := make(map[string]struct{})
	careers := make(map[string]struct{})

	for _, c := range courses {
		ic := e.index(c)
		if _, dup := e.byCode[c.Code]; !dup {
			e.byCode[c.Code] = len(e.courses)
		}
		e.courses = append(e.courses, ic)

		if d := strings.TrimSpace(c.Department); d != "" {
			depts[d] = struct{}{}
		}
		if c.Career != "" {
			careers[c.Career] = struct{}{}
		}
	}

	e.departments = sortedKeys(depts)
	e.careers = sortedKeys(careers)
	return e
}

func (e *Engine) index(c course.Course) IndexedCourse {
	title := c.Title
	if c.TitleParsed != nil && c.TitleParsed.ZH != "" {
		title = c.TitleParsed.ZH
	}

	offering := e.tokens(c.Department)
	audience := e.tokens(c.ForDept)
	all := make(tokenSet, len(offering)+len(audience))
	for t := range offering {
		all[t] = struct{}{}
	}
	for t := range audience {
		all[t] = struct{}{}
	}

	return IndexedCourse{
		Course:         c,
		title:          fold(title),
		code:           fold(c.Code),
		professor:      fold(c.Professor.Joined()),
		timeText:       fold(c.Time.Joined()),
		offeringTokens: offering,
		audienceTokens: audience,
		allTokens:      all,
	}
}

func (e *Engine) tokens(raw string) tokenSet {
	set := e.table.Tokens(stringutil.FoldWidth(raw))
	out := make(tokenSet, len(set))
	for t := range set {
		out[fold(t)] = struct{}{}
	}
	return out
}

// expand returns the folded alias expansion of a department query term.
func (e *Engine) expand(term string) []string {
	set := e.table.Expand(stringutil.FoldWidth(term))
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, fold(t))
	}
	return out
}

// Len returns the number of indexed courses.
func (e *Engine) Len() int {
	return len(e.courses)
}

// Get returns the course with the given code.
func (e *Engine) Get(code string) (course.Course, bool) {
	i, ok := e.byCode[strings.TrimSpace(code)]
	if !ok {
		return course.Course{}, false
	}
	return e.courses[i].Course, true
}

// Courses returns the indexed courses in snapshot order.
func (e *Engine) Courses() []course.Course {
	out := make([]course.Course, len(e.courses))
	for i := range e.courses {
		out[i] = e.courses[i].Course
	}
	return out
}

// Departments returns the sorted unique offering departments.
func (e *Engine) Departments() []string {
	return slices.Clone(e.departments)
}

// Careers returns the sorted unique career codes present in the snapshot.
func (e *Engine) Careers() []string {
	return slices.Clone(e.careers)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
