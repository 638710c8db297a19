package ctdf

import "time"

type DayClass string

const (
	DayClassWeekday DayClass = "weekday"
	DayClassWeekend DayClass = "weekend"
)

var DayClasses = []DayClass{DayClassWeekday, DayClassWeekend}

func DayClassOf(date time.Time) DayClass {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return DayClassWeekend
	default:
		return DayClassWeekday
	}
}

// WeeklySummaryRow is the connectivity between two suburbs for one class of day
// in the target week. Travel times are seconds and nil when no trip ran.
type WeeklySummaryRow struct {
	WeekStart time.Time `json:"week_start" groups:"detailed"`

	OriginSuburb      string   `json:"origin_suburb" groups:"basic,detailed"`
	OriginCode        string   `json:"origin_code" groups:"detailed"`
	DestinationSuburb string   `json:"destination_suburb" groups:"basic,detailed"`
	DestinationCode   string   `json:"destination_code" groups:"detailed"`
	DayClass          DayClass `json:"day_class" groups:"basic,detailed"`

	TripCount      int      `json:"trip_count" groups:"basic,detailed"`
	MeanTravelTime *float64 `json:"mean_travel_time_seconds" groups:"basic,detailed"`
	RouteCoverage  int      `json:"route_coverage" groups:"basic,detailed"`

	MedianTravelTime *float64        `json:"median_travel_time_seconds" groups:"detailed"`
	MinTravelTime    *float64        `json:"min_travel_time_seconds" groups:"detailed"`
	MaxTravelTime    *float64        `json:"max_travel_time_seconds" groups:"detailed"`
	TripsPerDay      float64         `json:"trips_per_day" groups:"detailed"`
	TransportTypes   []TransportType `json:"transport_types" groups:"detailed"`
}

func (r *WeeklySummaryRow) Key() string {
	return r.OriginSuburb + "\x00" + r.DestinationSuburb + "\x00" + string(r.DayClass)
}
