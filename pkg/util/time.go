package util

import (
	"fmt"
	"time"
)

const (
	ISODateFormat  = "2006-01-02"
	GTFSDateFormat = "20060102"
)

// DateOnly drops the clock part of t, keeping the calendar date in UTC
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseISODate(value string) (time.Time, error) {
	date, err := time.Parse(ISODateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}

	return date, nil
}

func ParseGTFSDate(value string) (time.Time, error) {
	date, err := time.Parse(GTFSDateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYYMMDD", value)
	}

	return date, nil
}
