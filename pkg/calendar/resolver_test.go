package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/gtfs"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func everyMonday(serviceID string) gtfs.CalendarRule {
	return gtfs.CalendarRule{
		ServiceID: serviceID,
		Days:      gtfs.Weekdays(0).With(time.Monday),
		Start:     date(2026, 1, 1),
		End:       date(2026, 12, 31),
	}
}

func TestRemovedExceptionWins(t *testing.T) {
	resolver := NewResolver(
		[]gtfs.CalendarRule{everyMonday("S1")},
		[]gtfs.CalendarException{
			{ServiceID: "S1", Date: date(2026, 1, 5), Type: gtfs.ServiceRemoved},
		},
	)

	assert.False(t, resolver.Resolve(date(2026, 1, 5)).Contains("S1"))
	assert.True(t, resolver.Resolve(date(2026, 1, 12)).Contains("S1"))
}

func TestRemovedWinsOverAdded(t *testing.T) {
	resolver := NewResolver(nil, []gtfs.CalendarException{
		{ServiceID: "S1", Date: date(2026, 1, 5), Type: gtfs.ServiceAdded},
		{ServiceID: "S1", Date: date(2026, 1, 5), Type: gtfs.ServiceRemoved},
	})

	assert.False(t, resolver.Resolve(date(2026, 1, 5)).Contains("S1"))
}

func TestAddedExceptionWithoutRule(t *testing.T) {
	resolver := NewResolver(nil, []gtfs.CalendarException{
		{ServiceID: "S2", Date: date(2026, 1, 1), Type: gtfs.ServiceAdded},
	})

	assert.True(t, resolver.Resolve(date(2026, 1, 1)).Contains("S2"))
	assert.False(t, resolver.Resolve(date(2026, 1, 2)).Contains("S2"))
}

func TestAddedExceptionOutsideRuleRange(t *testing.T) {
	rule := everyMonday("S1")
	rule.End = date(2026, 1, 31)

	resolver := NewResolver(
		[]gtfs.CalendarRule{rule},
		[]gtfs.CalendarException{
			{ServiceID: "S1", Date: date(2026, 2, 7), Type: gtfs.ServiceAdded},
		},
	)

	assert.True(t, resolver.Resolve(date(2026, 2, 7)).Contains("S1"))
	assert.False(t, resolver.Resolve(date(2026, 2, 2)).Contains("S1"))
}

func TestRuleDateRangeIsInclusive(t *testing.T) {
	rule := gtfs.CalendarRule{
		ServiceID: "S1",
		Start:     date(2026, 1, 5),
		End:       date(2026, 1, 9),
	}
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		rule.Days = rule.Days.With(day)
	}
	resolver := NewResolver([]gtfs.CalendarRule{rule}, nil)

	for _, tc := range []struct {
		date   time.Time
		active bool
	}{
		{date: date(2026, 1, 2), active: false},
		{date: date(2026, 1, 5), active: true},
		{date: date(2026, 1, 9), active: true},
		{date: date(2026, 1, 10), active: false},
		{date: date(2026, 1, 12), active: false},
	} {
		assert.Equal(t, tc.active, resolver.Resolve(tc.date).Contains("S1"), tc.date.String())
	}
}

func TestResolveIgnoresClock(t *testing.T) {
	resolver := NewResolver([]gtfs.CalendarRule{everyMonday("S1")}, nil)

	assert.True(t, resolver.Resolve(time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)).Contains("S1"))
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := NewResolver(
		[]gtfs.CalendarRule{everyMonday("S1"), everyMonday("S3")},
		[]gtfs.CalendarException{
			{ServiceID: "S2", Date: date(2026, 1, 5), Type: gtfs.ServiceAdded},
			{ServiceID: "S3", Date: date(2026, 1, 5), Type: gtfs.ServiceRemoved},
		},
	)

	first := resolver.Resolve(date(2026, 1, 5))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, resolver.Resolve(date(2026, 1, 5)))
	}
	assert.Equal(t, []string{"S1", "S2"}, first.Sorted())
}

func TestResolveWeek(t *testing.T) {
	weekdays := gtfs.CalendarRule{
		ServiceID: "WEEKDAY",
		Start:     date(2026, 1, 1),
		End:       date(2026, 12, 31),
	}
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		weekdays.Days = weekdays.Days.With(day)
	}
	resolver := NewResolver([]gtfs.CalendarRule{weekdays}, nil)

	days := resolver.ResolveWeek(NewWeek(date(2026, 1, 5)), 4)
	require.Len(t, days, DaysInWeek)

	running := 0
	for i, day := range days {
		assert.Equal(t, date(2026, 1, 5+i), day.Date)
		if day.Active.Contains("WEEKDAY") {
			running++
			assert.Equal(t, ctdf.DayClassWeekday, ctdf.DayClassOf(day.Date))
		}
	}
	assert.Equal(t, 5, running)
}

func TestOrphanedServices(t *testing.T) {
	resolver := NewResolver(
		[]gtfs.CalendarRule{everyMonday("S1")},
		[]gtfs.CalendarException{{ServiceID: "S2", Date: date(2026, 1, 1), Type: gtfs.ServiceAdded}},
	)

	orphans := resolver.OrphanedServices(map[string]int{"S1": 3, "S2": 1, "GHOST": 2, "ALSO_GHOST": 1})
	require.Len(t, orphans, 2)
	assert.Equal(t, "ALSO_GHOST", orphans[0].ServiceID)
	assert.Equal(t, "GHOST", orphans[1].ServiceID)
	assert.Equal(t, 2, orphans[1].TripCount)

	for _, day := range resolver.ResolveWeek(NewWeek(date(2026, 1, 1)), 1) {
		assert.False(t, day.Active.Contains("GHOST"))
	}
}
