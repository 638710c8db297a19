package gtfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleTime(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected int
		invalid  bool
	}{
		{input: "00:00:00", expected: 0},
		{input: "08:20:00", expected: 30000},
		{input: "8:20:00", expected: 30000},
		{input: "24:10:00", expected: 87000},
		{input: "27:05:09", expected: 97509},
		{input: "08:60:00", invalid: true},
		{input: "08:00:60", invalid: true},
		{input: "08:00", invalid: true},
		{input: "-1:00:00", invalid: true},
		{input: "aa:00:00", invalid: true},
		{input: "+8:00:00", invalid: true},
		{input: "08:+1:00", invalid: true},
		{input: "999:59:59", expected: 3599999},
		{input: "1000:00:00", invalid: true},
		{input: "99999999999999999999:00:00", invalid: true},
		{input: "", invalid: true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			parsed, err := ParseScheduleTime(tc.input)
			if tc.invalid {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, parsed.Seconds())
		})
	}
}

func TestScheduleTimeAcrossMidnight(t *testing.T) {
	departure, err := ParseScheduleTime("23:50:00")
	require.NoError(t, err)
	arrival, err := ParseScheduleTime("24:10:00")
	require.NoError(t, err)

	assert.Equal(t, 1200, arrival.Seconds()-departure.Seconds())
	assert.Equal(t, "24:10:00", arrival.String())
}
