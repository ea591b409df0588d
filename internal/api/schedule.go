package api

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/nchu-course-helper/internal/course"
	domerrors "github.com/garyellow/nchu-course-helper/internal/errors"
	"github.com/garyellow/nchu-course-helper/internal/sliceutil"
	"github.com/garyellow/nchu-course-helper/internal/stringutil"
	"github.com/garyellow/nchu-course-helper/internal/timetable"
)

// scheduleRequest selects courses by code from the index, inline, or both.
type scheduleRequest struct {
	Codes   []string        `json:"codes"`
	Courses []course.Course `json:"courses"`
}

type scheduleResponse struct {
	timetable.Schedule
	HasConflicts bool                                    `json:"hasConflicts"`
	Courses      []course.Course                         `json:"courses"`
	Entries      []scheduleEntry                         `json:"entries"`
	Missing      []string                                `json:"missing"`
	Periods      [timetable.Periods]timetable.PeriodTime `json:"periods"`
}

// scheduleEntry is the list view of one selected course.
type scheduleEntry struct {
	Code     string    `json:"code"`
	Title    string    `json:"title"`
	Career   string    `json:"career"`
	Credits  int       `json:"credits"`
	Meetings []meeting `json:"meetings"`
}

// meeting is one weekly block with its clock span. Start and End are empty
// when the periods fall outside the period table.
type meeting struct {
	Day     int    `json:"day"`
	Weekday string `json:"weekday"`
	Periods []int  `json:"periods"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// careerOf prefers the catalog code and falls back to the department text
// for courses posted inline without one.
func careerOf(c *course.Course) course.Career {
	if course.IsCareerCode(c.Career) {
		return course.CareerFromCode(c.Career)
	}
	return course.ClassifyDepartment(c.Department)
}

func newScheduleEntry(c *course.Course) scheduleEntry {
	entry := scheduleEntry{
		Code:     c.Code,
		Title:    c.DisplayTitle(),
		Career:   careerOf(c).String(),
		Credits:  c.CreditsParsed,
		Meetings: make([]meeting, 0, len(c.TimeParsed)),
	}
	for _, block := range c.TimeParsed {
		m := meeting{Day: block.Day, Weekday: timetable.WeekdayLabel(block.Day), Periods: block.Periods}
		if len(block.Periods) > 0 {
			start, _, okStart := timetable.PeriodRange(slices.Min(block.Periods))
			_, end, okEnd := timetable.PeriodRange(slices.Max(block.Periods))
			if okStart && okEnd {
				m.Start, m.End = start, end
			}
		}
		entry.Meetings = append(entry.Meetings, m)
	}
	return entry
}

func (h *Handler) buildSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, domerrors.NewValidationError("body", "must be a JSON object with codes or courses"))
		return
	}

	codes := make([]string, 0, len(req.Codes))
	for _, code := range req.Codes {
		if code = stringutil.NormalizeQuery(code); code != "" {
			codes = append(codes, code)
		}
	}
	codes = sliceutil.Deduplicate(codes, func(s string) string { return s })

	if len(codes) == 0 && len(req.Courses) == 0 {
		h.respondError(c, domerrors.NewValidationError("codes", "at least one course is required"))
		return
	}
	if n := len(codes) + len(req.Courses); n > maxScheduleCourses {
		h.respondError(c, domerrors.NewValidationError("codes",
			fmt.Sprintf("at most %d courses per schedule, got %d", maxScheduleCourses, n)))
		return
	}

	engine := h.holder.Load()
	selected := make([]course.Course, 0, len(codes)+len(req.Courses))
	missing := []string{}
	for _, code := range codes {
		if found, ok := engine.Get(code); ok {
			selected = append(selected, found)
		} else {
			missing = append(missing, code)
		}
	}
	selected = append(selected, req.Courses...)

	schedule := timetable.Build(selected)
	if h.metrics != nil {
		h.metrics.RecordSchedule(len(schedule.Conflicts))
	}

	entries := make([]scheduleEntry, 0, len(selected))
	for i := range selected {
		entries = append(entries, newScheduleEntry(&selected[i]))
	}

	c.JSON(http.StatusOK, scheduleResponse{
		Schedule:     schedule,
		HasConflicts: schedule.HasConflicts(),
		Courses:      selected,
		Entries:      entries,
		Missing:      missing,
		Periods:      timetable.PeriodTimes,
	})
}
