package search

import "strings"

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// Filters is a structured search request. Zero-valued fields are not applied;
// every applied field must match (AND semantics).
type Filters struct {
	Keyword    string
	Department string // Offering unit, alias-expanded
	ForDept    string // Audience unit, alias-expanded
	Career     string // Catalog code (U, G, ...) or its display name
	Professor  string
	Credits    *int
	Weekday    string // M/T/W/R/F/S/U, 1-7 or 一..日
	Periods    []int  // Matches when any meeting uses any of these periods
	Time       string // Substring of the display time text
	Page       int
	Limit      int
}

// normalized returns a copy with pagination clamped to the defaults.
func (f Filters) normalized() Filters {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	return f
}

// weekdayCodes maps accepted weekday spellings to 1=Monday..7=Sunday.
var weekdayCodes = map[string]int{
	"M": 1, "T": 2, "W": 3, "R": 4, "F": 5, "S": 6, "U": 7,
	"1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"一": 1, "二": 2, "三": 3, "四": 4, "五": 5, "六": 6, "日": 7, "天": 7,
}

// ParseWeekday maps a weekday code to its day number.
// ok is false for unknown codes.
func ParseWeekday(code string) (day int, ok bool) {
	day, ok = weekdayCodes[strings.ToUpper(strings.TrimSpace(code))]
	return day, ok
}
