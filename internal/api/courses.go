package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/nchu-course-helper/internal/course"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
	"github.com/garyellow/nchu-course-helper/internal/search"
	"github.com/garyellow/nchu-course-helper/internal/stringutil"
	"github.com/garyellow/nchu-course-helper/internal/timetable"
)

// periodDelimiters separate values of the timePeriods query parameter.
const periodDelimiters = ",，、"

func (h *Handler) searchCourses(c *gin.Context) {
	start := time.Now()

	filters, err := h.parseFilters(c)
	if err != nil {
		h.recordSearch("invalid", start)
		h.respondError(c, err)
		return
	}

	result := h.holder.Load().Search(filters)
	outcome := "hit"
	if result.Total == 0 {
		outcome = "empty"
	}
	h.recordSearch(outcome, start)

	c.JSON(http.StatusOK, result)
}

func (h *Handler) recordSearch(outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordSearch(outcome, time.Since(start).Seconds())
	}
}

// parseFilters maps query parameters onto search filters. Blank parameters
// are ignored; malformed numbers are rejected.
func (h *Handler) parseFilters(c *gin.Context) (search.Filters, error) {
	q := func(key string) string {
		return stringutil.NormalizeQuery(c.Query(key))
	}

	f := search.Filters{
		Keyword:    q("keyword"),
		Department: q("department"),
		ForDept:    q("for_dept"),
		Career:     q("career"),
		Professor:  q("professor"),
		Time:       q("time"),
		Weekday:    q("timeDay"),
	}

	if v := q("credits"); v != "" {
		n, err := parseNonNegative("credits", v)
		if err != nil {
			return f, err
		}
		f.Credits = &n
	}

	if v := q("timePeriods"); v != "" {
		for _, part := range stringutil.SplitAny(v, periodDelimiters) {
			n, err := parseNonNegative("timePeriods", part)
			if err != nil {
				return f, err
			}
			f.Periods = append(f.Periods, n)
		}
	}

	var err error
	if f.Page, err = parseOptional("page", q("page")); err != nil {
		return f, err
	}
	if f.Limit, err = parseOptional("limit", q("limit")); err != nil {
		return f, err
	}
	if f.Limit > h.maxLimit {
		f.Limit = h.maxLimit
	}
	return f, nil
}

func parseNonNegative(field, v string) (int, error) {
	if !stringutil.IsNumeric(v) {
		return 0, domerrors.NewValidationError(field, "must be a non-negative integer")
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domerrors.NewValidationError(field, "is out of range")
	}
	return n, nil
}

// parseOptional returns 0 for an absent value; the engine applies defaults.
func parseOptional(field, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return parseNonNegative(field, v)
}

func (h *Handler) getCourse(c *gin.Context) {
	code := stringutil.NormalizeQuery(c.Param("code"))
	found, ok := h.holder.Load().Get(code)
	if !ok {
		h.respondError(c, domerrors.NewWrapper("api", "get_course").
			Wrapf(domerrors.ErrNotFound, "course %s not found", code))
		return
	}
	c.JSON(http.StatusOK, found)
}

// departmentInfo is one offering department with the career its name implies.
type departmentInfo struct {
	Name   string `json:"name"`
	Career string `json:"career"`
}

func (h *Handler) listDepartments(c *gin.Context) {
	names := h.holder.Load().Departments()
	out := make([]departmentInfo, 0, len(names))
	for _, name := range names {
		out = append(out, departmentInfo{Name: name, Career: course.ClassifyDepartment(name).String()})
	}
	c.JSON(http.StatusOK, gin.H{"departments": out})
}

// careerInfo is one career present in the index.
type careerInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *Handler) listCareers(c *gin.Context) {
	codes := h.holder.Load().Careers()
	out := make([]careerInfo, 0, len(codes))
	for _, code := range codes {
		name := course.CareerName(code)
		if name == "" {
			name = strings.ToUpper(code)
		}
		out = append(out, careerInfo{Code: code, Name: name})
	}
	c.JSON(http.StatusOK, gin.H{"careers": out})
}

func (h *Handler) listPeriods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"periods": timetable.PeriodTimes})
}
