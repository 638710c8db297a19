package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/util"
)

const DaysInWeek = 7

// WeekPolicy decides how the target week is placed relative to the processing date
type WeekPolicy string

const (
	// WeekPolicyAnchor starts the week on the processing date itself
	WeekPolicyAnchor WeekPolicy = "anchor"
	// WeekPolicyNext starts on the first week start day strictly after the processing date
	WeekPolicyNext WeekPolicy = "next"
	// WeekPolicyOnOrAfter starts on the processing date when it is already the week start day
	WeekPolicyOnOrAfter WeekPolicy = "on-or-after"
)

func ParseWeekPolicy(value string) (WeekPolicy, error) {
	switch policy := WeekPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return WeekPolicyAnchor, nil
	case WeekPolicyAnchor, WeekPolicyNext, WeekPolicyOnOrAfter:
		return policy, nil
	}

	return "", fmt.Errorf("unknown week policy %q, expected anchor, next or on-or-after", value)
}

func ParseWeekday(value string) (time.Weekday, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return time.Monday, nil
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if value == name || value == name[:3] {
			return day, nil
		}
	}

	return time.Sunday, fmt.Errorf("unknown weekday %q", value)
}

// Week is the 7 consecutive dates a summary covers
type Week struct {
	Dates [DaysInWeek]time.Time
}

// TargetWeek places the week relative to the processing date
func TargetWeek(processing time.Time, start time.Weekday, policy WeekPolicy) (Week, error) {
	if processing.IsZero() {
		return Week{}, fmt.Errorf("processing date is not set")
	}

	first := util.DateOnly(processing)

	switch policy {
	case WeekPolicyAnchor, "":
	case WeekPolicyNext:
		first = first.AddDate(0, 0, 1)
		for first.Weekday() != start {
			first = first.AddDate(0, 0, 1)
		}
	case WeekPolicyOnOrAfter:
		for first.Weekday() != start {
			first = first.AddDate(0, 0, 1)
		}
	default:
		return Week{}, fmt.Errorf("unknown week policy %q", policy)
	}

	return NewWeek(first), nil
}

func NewWeek(start time.Time) Week {
	var week Week
	start = util.DateOnly(start)
	for i := range week.Dates {
		week.Dates[i] = start.AddDate(0, 0, i)
	}

	return week
}

func (w Week) Start() time.Time {
	return w.Dates[0]
}

func (w Week) End() time.Time {
	return w.Dates[DaysInWeek-1]
}

func (w Week) Contains(date time.Time) bool {
	date = util.DateOnly(date)
	return !date.Before(w.Start()) && !date.After(w.End())
}

// DaysOfClass counts the dates of the week falling in the day class
func (w Week) DaysOfClass(class ctdf.DayClass) int {
	count := 0
	for _, date := range w.Dates {
		if ctdf.DayClassOf(date) == class {
			count++
		}
	}

	return count
}

func (w Week) String() string {
	return fmt.Sprintf("%s/%s", w.Start().Format(util.ISODateFormat), w.End().Format(util.ISODateFormat))
}
