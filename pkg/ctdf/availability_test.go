package ctdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestAvailabilityMatchDate(t *testing.T) {
	mondays2026 := &Availability{
		Match: []AvailabilityRule{
			{Type: AvailabilityDayOfWeek, Value: "Monday"},
		},
		Condition: []AvailabilityRule{
			{Type: AvailabilityDateRange, Value: "2026-01-01:2026-12-31"},
		},
	}

	for _, tc := range []struct {
		desc         string
		availability *Availability
		date         time.Time
		expected     bool
	}{
		{
			desc:         "matching weekday inside range",
			availability: mondays2026,
			date:         date(2026, 1, 5),
			expected:     true,
		},
		{
			desc:         "other weekday inside range",
			availability: mondays2026,
			date:         date(2026, 1, 6),
			expected:     false,
		},
		{
			desc:         "matching weekday outside range",
			availability: mondays2026,
			date:         date(2027, 1, 4),
			expected:     false,
		},
		{
			desc: "exclude beats the base layer",
			availability: &Availability{
				Match:     mondays2026.Match,
				Condition: mondays2026.Condition,
				Exclude:   []AvailabilityRule{{Type: AvailabilityDate, Value: "2026-01-05"}},
			},
			date:     date(2026, 1, 5),
			expected: false,
		},
		{
			desc: "include outside the date range",
			availability: &Availability{
				Match:     mondays2026.Match,
				Condition: mondays2026.Condition,
				Include:   []AvailabilityRule{{Type: AvailabilityDate, Value: "2027-01-01"}},
			},
			date:     date(2027, 1, 1),
			expected: true,
		},
		{
			desc: "exclude beats include",
			availability: &Availability{
				Include: []AvailabilityRule{{Type: AvailabilityDate, Value: "2026-01-01"}},
				Exclude: []AvailabilityRule{{Type: AvailabilityDate, Value: "2026-01-01"}},
			},
			date:     date(2026, 1, 1),
			expected: false,
		},
		{
			desc:         "empty availability never matches",
			availability: &Availability{},
			date:         date(2026, 1, 1),
			expected:     false,
		},
		{
			desc:         "nil availability never matches",
			availability: nil,
			date:         date(2026, 1, 1),
			expected:     false,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.availability.MatchDate(tc.date))
		})
	}
}

func TestTransportTypeFromRouteTypeBasic(t *testing.T) {
	assert.Equal(t, TransportTypeBus, TransportTypeFromRouteType(3))
	assert.Equal(t, TransportTypeRail, TransportTypeFromRouteType(2))
	assert.Equal(t, TransportTypeFerry, TransportTypeFromRouteType(4))
	assert.Equal(t, TransportTypeBus, TransportTypeFromRouteType(700))
	assert.Equal(t, TransportTypeRail, TransportTypeFromRouteType(109))
	assert.Equal(t, TransportTypeUnknown, TransportTypeFromRouteType(42))
}
