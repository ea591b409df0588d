// Package timetable places selected courses on the weekly Monday-Friday grid and
// reports overlapping cells.
package timetable

import (
	"fmt"

	"github.com/garyellow/nchu-course-helper/internal/course"
)

// Cell is one (period, weekday) slot.
type Cell struct {
	Course   *course.Course `json:"course,omitempty"`
	Conflict bool           `json:"conflict"`
}

// Grid is indexed [period-1][day-1].
type Grid [Periods][Weekdays]Cell

// Schedule is the result of Build.
type Schedule struct {
	Grid         Grid     `json:"grid"`
	Conflicts    []string `json:"conflicts"`
	TotalCredits int      `json:"totalCredits"`
}

// HasConflicts reports whether any cell is double-booked.
func (s *Schedule) HasConflicts() bool {
	return len(s.Conflicts) > 0
}

// ConflictLabel formats a conflicting slot, e.g. "一第1節".
func ConflictLabel(day, period int) string {
	return fmt.Sprintf("%s第%d節", WeekdayLabel(day), period)
}

// Build places every meeting of the selected courses, in input order.
//
// Weekend days and periods outside 1..13 are skipped. When a cell is already taken
// its conflict flag is set for good and the later course replaces the shown one.
// Conflict labels are unique and ordered by first occurrence.
func Build(selected []course.Course) Schedule {
	var s Schedule
	s.Conflicts = []string{}
	seen := make(map[string]struct{})
	counted := make(map[string]struct{}, len(selected))

	for i := range selected {
		c := &selected[i]

		if _, dup := counted[c.Code]; !dup {
			counted[c.Code] = struct{}{}
			s.TotalCredits += c.CreditsParsed
		}

		for _, block := range c.TimeParsed {
			col := block.Day - 1
			if col < 0 || col >= Weekdays {
				continue
			}
			for _, period := range block.Periods {
				row := period - 1
				if row < 0 || row >= Periods {
					continue
				}

				cell := &s.Grid[row][col]
				if cell.Course != nil {
					cell.Conflict = true
					label := ConflictLabel(block.Day, period)
					if _, ok := seen[label]; !ok {
						seen[label] = struct{}{}
						s.Conflicts = append(s.Conflicts, label)
					}
				}
				cell.Course = c
			}
		}
	}

	return s
}
