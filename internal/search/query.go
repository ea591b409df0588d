package search

import (
	"strings"

	"github.com/garyellow/nchu-course-helper/internal/course"
)

// Result is one page of matching courses.
type Result struct {
	Items      []course.Course `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

type predicate func(*IndexedCourse) bool

// Search applies every present filter and returns the requested page.
// Matches keep snapshot order. A page past the end yields no items but correct totals.
func (e *Engine) Search(f Filters) Result {
	f = f.normalized()
	preds := e.predicates(f)

	// Pages past the end start beyond the last index without multiplying,
	// so huge page numbers cannot overflow.
	start, end := len(e.courses), len(e.courses)
	if f.Page-1 <= len(e.courses)/f.Limit {
		start = (f.Page - 1) * f.Limit
		end = start + min(f.Limit, len(e.courses))
	}

	items := make([]course.Course, 0, min(f.Limit, len(e.courses)))
	total := 0
	for i := range e.courses {
		ic := &e.courses[i]
		if !matchesAll(ic, preds) {
			continue
		}
		if total >= start && total < end {
			items = append(items, ic.Course)
		}
		total++
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total-1)/f.Limit + 1
	}
	return Result{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages,
	}
}

func matchesAll(ic *IndexedCourse, preds []predicate) bool {
	for _, p := range preds {
		if !p(ic) {
			return false
		}
	}
	return true
}

// predicates compiles the present filters, in evaluation order.
func (e *Engine) predicates(f Filters) []predicate {
	var preds []predicate

	if kw := fold(strings.TrimSpace(f.Keyword)); kw != "" {
		preds = append(preds, func(ic *IndexedCourse) bool {
			return strings.Contains(ic.title, kw) ||
				strings.Contains(ic.code, kw) ||
				strings.Contains(ic.professor, kw) ||
				ic.allTokens.anyContains(kw)
		})
	}

	if strings.TrimSpace(f.Department) != "" {
		terms := e.expand(f.Department)
		preds = append(preds, func(ic *IndexedCourse) bool {
			return ic.offeringTokens.intersects(terms)
		})
	}

	if strings.TrimSpace(f.ForDept) != "" {
		terms := e.expand(f.ForDept)
		preds = append(preds, func(ic *IndexedCourse) bool {
			return ic.audienceTokens.intersects(terms)
		})
	}

	if career := strings.TrimSpace(f.Career); career != "" {
		preds = append(preds, careerPredicate(career))
	}

	if prof := fold(strings.TrimSpace(f.Professor)); prof != "" {
		preds = append(preds, func(ic *IndexedCourse) bool {
			return strings.Contains(ic.professor, prof)
		})
	}

	if f.Credits != nil {
		credits := *f.Credits
		preds = append(preds, func(ic *IndexedCourse) bool {
			return ic.CreditsParsed == credits
		})
	}

	if code := strings.TrimSpace(f.Weekday); code != "" {
		day, ok := ParseWeekday(code)
		preds = append(preds, func(ic *IndexedCourse) bool {
			return ok && ic.MeetsOn(day)
		})
	}

	if len(f.Periods) > 0 {
		periods := make(map[int]struct{}, len(f.Periods))
		for _, p := range f.Periods {
			periods[p] = struct{}{}
		}
		preds = append(preds, func(ic *IndexedCourse) bool {
			return ic.MeetsInAny(periods)
		})
	}

	if t := fold(strings.TrimSpace(f.Time)); t != "" {
		preds = append(preds, func(ic *IndexedCourse) bool {
			return strings.Contains(ic.timeText, t)
		})
	}

	return preds
}

// careerPredicate matches the record's career code, its display name, or the
// display name appearing in the department or audience text.
func careerPredicate(value string) predicate {
	name := course.CareerName(value)
	if name == "" && isCareerName(value) {
		name = value
	}

	return func(ic *IndexedCourse) bool {
		if ic.Career != "" {
			if strings.EqualFold(ic.Career, value) || course.CareerName(ic.Career) == value {
				return true
			}
		}
		if name == "" {
			return false
		}
		return strings.Contains(ic.Department, name) || strings.Contains(ic.ForDept, name)
	}
}

func isCareerName(s string) bool {
	for _, cc := range course.CareerCodes {
		if cc.Name == s {
			return true
		}
	}
	return false
}
