package timetable

// Grid dimensions: 13 periods by Monday..Friday.
const (
	Periods  = 13
	Weekdays = 5
)

// PeriodTime represents a class period with start and end times.
type PeriodTime struct {
	Period    int    `json:"period"`    // 1-13
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

// PeriodTimes lists NCHU's class periods in order.
var PeriodTimes = [Periods]PeriodTime{
	{Period: 1, StartTime: "08:10", EndTime: "09:00"},
	{Period: 2, StartTime: "09:10", EndTime: "10:00"},
	{Period: 3, StartTime: "10:10", EndTime: "11:00"},
	{Period: 4, StartTime: "11:10", EndTime: "12:00"},
	{Period: 5, StartTime: "13:10", EndTime: "14:00"},
	{Period: 6, StartTime: "14:10", EndTime: "15:00"},
	{Period: 7, StartTime: "15:10", EndTime: "16:00"},
	{Period: 8, StartTime: "16:10", EndTime: "17:00"},
	{Period: 9, StartTime: "17:10", EndTime: "18:00"},
	{Period: 10, StartTime: "18:10", EndTime: "19:00"},
	{Period: 11, StartTime: "19:10", EndTime: "20:00"},
	{Period: 12, StartTime: "20:10", EndTime: "21:00"},
	{Period: 13, StartTime: "21:10", EndTime: "22:00"},
}

// PeriodRange returns the start and end time of a 1-based period.
func PeriodRange(period int) (start, end string, ok bool) {
	if period < 1 || period > Periods {
		return "", "", false
	}
	pt := PeriodTimes[period-1]
	return pt.StartTime, pt.EndTime, true
}

var weekdayLabels = [...]string{"一", "二", "三", "四", "五", "六", "日"}

// WeekdayLabel returns the Chinese label of day 1=Monday..7=Sunday, or "" if out of range.
func WeekdayLabel(day int) string {
	if day < 1 || day > len(weekdayLabels) {
		return ""
	}
	return weekdayLabels[day-1]
}
