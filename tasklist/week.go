package tasklist

import (
	"fmt"

	"github.com/example/task-manager/domain/task"
)

// Week is a Sunday to Saturday range. Both ends are inclusive.
type Week struct {
	Start task.Date `json:"start"`
	End   task.Date `json:"end"`
}

// WeekOf returns the week containing day: Start is day minus its weekday
// (Sunday = 0) and End is Start plus six days.
func WeekOf(day task.Date) Week {
	start := day.AddDays(-int(day.Weekday()))
	return Week{Start: start, End: start.AddDays(6)}
}

// Contains reports whether day falls within the week.
func (w Week) Contains(day task.Date) bool {
	return !day.Before(w.Start) && !day.After(w.End)
}

// IntermediateDays returns the days strictly between Start and End, for
// marking a calendar. Filtering never depends on it.
func (w Week) IntermediateDays() []task.Date {
	n := w.Start.DaysUntil(w.End) - 1
	if n <= 0 {
		return nil
	}
	days := make([]task.Date, 0, n)
	for d := w.Start.AddDays(1); d.Before(w.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Label renders the week as "Week of Jan 7 to Jan 13".
func (w Week) Label() string {
	return fmt.Sprintf("Week of %s to %s", w.Start.Short(), w.End.Short())
}

func (w Week) String() string {
	return w.Start.String() + ".." + w.End.String()
}
