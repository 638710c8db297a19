package ctdf

import (
	"strings"
	"time"
)

// Availability describes the dates a service runs on as layered rules.
//
// The base layer matches when at least one Match rule and every Condition rule
// match. Include and Exclude are override layers applied afterwards, with
// Exclude always taking precedence.
type Availability struct {
	Match     []AvailabilityRule // Must match at least one
	Condition []AvailabilityRule // Must match all
	Include   []AvailabilityRule // Matches regardless of the base layer
	Exclude   []AvailabilityRule // Must not match one
}

type AvailabilityRule struct {
	Type        AvailabilityRecordType
	Value       string
	Description string
}

type AvailabilityRecordType string

const (
	AvailabilityDayOfWeek AvailabilityRecordType = "DayOfWeek"
	AvailabilityDate      AvailabilityRecordType = "Date"
	AvailabilityDateRange AvailabilityRecordType = "DateRange"
	AvailabilityMatchAll  AvailabilityRecordType = "MatchAll"
)

const availabilityDateFormat = "2006-01-02"

func (a *Availability) MatchDate(date time.Time) bool {
	if a == nil {
		return false
	}

	for _, rule := range a.Exclude {
		if rule.MatchDate(date) {
			return false
		}
	}

	for _, rule := range a.Include {
		if rule.MatchDate(date) {
			return true
		}
	}

	return a.matchBase(date)
}

func (a *Availability) matchBase(date time.Time) bool {
	matched := false
	for _, rule := range a.Match {
		if rule.MatchDate(date) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, rule := range a.Condition {
		if !rule.MatchDate(date) {
			return false
		}
	}

	return true
}

func (r AvailabilityRule) MatchDate(date time.Time) bool {
	switch r.Type {
	case AvailabilityMatchAll:
		return true
	case AvailabilityDayOfWeek:
		return date.Weekday().String() == r.Value
	case AvailabilityDate:
		return date.Format(availabilityDateFormat) == r.Value
	case AvailabilityDateRange:
		from, to, found := strings.Cut(r.Value, ":")
		if !found {
			return false
		}

		day := date.Format(availabilityDateFormat)

		// ISO dates compare correctly as strings
		return from <= day && day <= to
	}

	return false
}
