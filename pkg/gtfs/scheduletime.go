package gtfs

import (
	"fmt"
	"strconv"
	"strings"
)

// ScheduleTime is a GTFS time of day as seconds since the start of the service
// day. It goes past 86400 for trips running after midnight and is never wrapped.
type ScheduleTime int

const SecondsPerDay = 24 * 60 * 60

// Hours past this are corrupt data rather than a late running trip
const maxScheduleHours = 999

func ParseScheduleTime(value string) (ScheduleTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q, expected H:MM:SS", value)
	}

	var fields [3]int
	for i, part := range parts {
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		fields[i] = n
	}

	hours, minutes, seconds := fields[0], fields[1], fields[2]
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("invalid time %q, minutes and seconds must be below 60", value)
	}
	if hours > maxScheduleHours {
		return 0, fmt.Errorf("invalid time %q, hours must be below %d", value, maxScheduleHours+1)
	}

	return ScheduleTime(hours*3600 + minutes*60 + seconds), nil
}

func (t ScheduleTime) Seconds() int {
	return int(t)
}

func (t ScheduleTime) String() string {
	seconds := int(t)
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}

	return fmt.Sprintf("%s%02d:%02d:%02d", sign, seconds/3600, (seconds/60)%60, seconds%60)
}
