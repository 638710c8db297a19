package gtfs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/util"
)

type Stop struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	// False for generic nodes and boarding areas published without coordinates
	Located bool
}

type Route struct {
	ID            string
	ShortName     string
	LongName      string
	RouteType     int
	TransportType ctdf.TransportType
}

func (r *Route) DisplayName() string {
	if r.ShortName != "" {
		return r.ShortName
	}
	return r.LongName
}

type Trip struct {
	ID        string
	RouteID   string
	ServiceID string
	// Ordered by strictly increasing Sequence
	StopTimes []StopTimeEntry
}

type StopTimeEntry struct {
	TripID   string
	StopID   string
	Sequence int

	Arrival   ScheduleTime
	Departure ScheduleTime
	// False when the feed leaves both arrival and departure empty (non timepoints)
	Timed bool
}

// Weekdays is a bitset of running days indexed by time.Weekday
type Weekdays uint8

func (w Weekdays) Has(day time.Weekday) bool {
	return w&(1<<uint(day)) != 0
}

func (w Weekdays) With(day time.Weekday) Weekdays {
	return w | (1 << uint(day))
}

// Days lists the set days in Monday..Sunday order
func (w Weekdays) Days() []time.Weekday {
	var days []time.Weekday
	for _, day := range weekOrder {
		if w.Has(day) {
			days = append(days, day)
		}
	}
	return days
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

type CalendarRule struct {
	ServiceID string
	Days      Weekdays
	// Inclusive
	Start time.Time
	End   time.Time
}

type ExceptionType int

const (
	ServiceAdded   ExceptionType = 1
	ServiceRemoved ExceptionType = 2
)

func (t ExceptionType) String() string {
	switch t {
	case ServiceAdded:
		return "added"
	case ServiceRemoved:
		return "removed"
	}
	return "unknown"
}

type CalendarException struct {
	ServiceID string
	Date      time.Time
	Type      ExceptionType
}

// Feed is the validated, immutable table model of a schedule
type Feed struct {
	Stops  map[string]*Stop
	Routes map[string]*Route
	// Ordered by trip ID
	Trips []*Trip

	CalendarRules      []CalendarRule
	CalendarExceptions []CalendarException
}

// SortedStops returns the stops ordered by ID
func (f *Feed) SortedStops() []*Stop {
	stops := make([]*Stop, 0, len(f.Stops))
	for _, stop := range f.Stops {
		stops = append(stops, stop)
	}
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].ID < stops[j].ID
	})
	return stops
}

// ServiceTripCounts counts trips per service ID
func (f *Feed) ServiceTripCounts() map[string]int {
	counts := map[string]int{}
	for _, trip := range f.Trips {
		counts[trip.ServiceID]++
	}
	return counts
}

// Build validates the raw rows and converts them into a Feed
func (gtfs *Schedule) Build() (*Feed, error) {
	feed := &Feed{
		Stops:  map[string]*Stop{},
		Routes: map[string]*Route{},
	}

	if err := gtfs.buildStops(feed); err != nil {
		return nil, err
	}
	if err := gtfs.buildRoutes(feed); err != nil {
		return nil, err
	}
	trips, err := gtfs.buildTrips(feed)
	if err != nil {
		return nil, err
	}
	if err := gtfs.buildStopTimes(feed, trips); err != nil {
		return nil, err
	}
	if err := gtfs.buildCalendars(feed); err != nil {
		return nil, err
	}
	if err := gtfs.buildCalendarDates(feed); err != nil {
		return nil, err
	}

	log.Info().
		Int("stops", len(feed.Stops)).
		Int("routes", len(feed.Routes)).
		Int("trips", len(feed.Trips)).
		Int("calendar_rules", len(feed.CalendarRules)).
		Int("calendar_exceptions", len(feed.CalendarExceptions)).
		Msg("Validated schedule")

	return feed, nil
}

func (gtfs *Schedule) buildStops(feed *Feed) error {
	for index, row := range gtfs.Stops {
		line := rowNumber(index)
		if row.ID == "" {
			return malformed(StopsFile, line, "stop_id", "missing value")
		}
		if _, exists := feed.Stops[row.ID]; exists {
			return malformed(StopsFile, line, "stop_id", "duplicate stop %q", row.ID)
		}

		stop := &Stop{
			ID:   row.ID,
			Name: row.Name,
		}

		if row.Latitude == "" && row.Longitude == "" && (row.Type == "3" || row.Type == "4") {
			feed.Stops[row.ID] = stop
			continue
		}

		latitude, err := strconv.ParseFloat(strings.TrimSpace(row.Latitude), 64)
		if err != nil || latitude < -90 || latitude > 90 {
			return malformed(StopsFile, line, "stop_lat", "invalid latitude %q", row.Latitude)
		}
		longitude, err := strconv.ParseFloat(strings.TrimSpace(row.Longitude), 64)
		if err != nil || longitude < -180 || longitude > 180 {
			return malformed(StopsFile, line, "stop_lon", "invalid longitude %q", row.Longitude)
		}

		stop.Latitude = latitude
		stop.Longitude = longitude
		stop.Located = true
		feed.Stops[row.ID] = stop
	}

	return nil
}

func (gtfs *Schedule) buildRoutes(feed *Feed) error {
	for index, row := range gtfs.Routes {
		line := rowNumber(index)
		if row.ID == "" {
			return malformed(RoutesFile, line, "route_id", "missing value")
		}
		if _, exists := feed.Routes[row.ID]; exists {
			return malformed(RoutesFile, line, "route_id", "duplicate route %q", row.ID)
		}

		routeType, err := strconv.Atoi(strings.TrimSpace(row.Type))
		if err != nil {
			return malformed(RoutesFile, line, "route_type", "invalid route type %q", row.Type)
		}

		feed.Routes[row.ID] = &Route{
			ID:            row.ID,
			ShortName:     row.ShortName,
			LongName:      row.LongName,
			RouteType:     routeType,
			TransportType: ctdf.TransportTypeFromRouteType(routeType),
		}
	}

	return nil
}

func (gtfs *Schedule) buildTrips(feed *Feed) (map[string]*Trip, error) {
	trips := map[string]*Trip{}

	for index, row := range gtfs.Trips {
		line := rowNumber(index)
		if row.ID == "" {
			return nil, malformed(TripsFile, line, "trip_id", "missing value")
		}
		if _, exists := trips[row.ID]; exists {
			return nil, malformed(TripsFile, line, "trip_id", "duplicate trip %q", row.ID)
		}
		if _, exists := feed.Routes[row.RouteID]; !exists {
			return nil, malformed(TripsFile, line, "route_id", "unknown route %q", row.RouteID)
		}
		if row.ServiceID == "" {
			return nil, malformed(TripsFile, line, "service_id", "missing value")
		}

		trip := &Trip{
			ID:        row.ID,
			RouteID:   row.RouteID,
			ServiceID: row.ServiceID,
		}
		trips[row.ID] = trip
		feed.Trips = append(feed.Trips, trip)
	}

	sort.Slice(feed.Trips, func(i, j int) bool {
		return feed.Trips[i].ID < feed.Trips[j].ID
	})

	return trips, nil
}

func (gtfs *Schedule) buildStopTimes(feed *Feed, trips map[string]*Trip) error {
	sequenceLines := map[*Trip]map[int]int{}

	for index, row := range gtfs.StopTimes {
		line := rowNumber(index)

		trip, exists := trips[row.TripID]
		if !exists {
			return malformed(StopTimesFile, line, "trip_id", "unknown trip %q", row.TripID)
		}
		if _, exists := feed.Stops[row.StopID]; !exists {
			return malformed(StopTimesFile, line, "stop_id", "unknown stop %q", row.StopID)
		}

		sequence, err := strconv.Atoi(strings.TrimSpace(row.StopSequence))
		if err != nil || sequence < 0 {
			return malformed(StopTimesFile, line, "stop_sequence", "invalid sequence %q", row.StopSequence)
		}

		if sequenceLines[trip] == nil {
			sequenceLines[trip] = map[int]int{}
		}
		if previousLine, exists := sequenceLines[trip][sequence]; exists {
			return malformed(StopTimesFile, line, "stop_sequence", "sequence %d of trip %q already used on line %d", sequence, trip.ID, previousLine)
		}
		sequenceLines[trip][sequence] = line

		entry := StopTimeEntry{
			TripID:   trip.ID,
			StopID:   row.StopID,
			Sequence: sequence,
		}

		arrival, departure := strings.TrimSpace(row.ArrivalTime), strings.TrimSpace(row.DepartureTime)
		// A stop with only one of the times dwells for zero seconds
		if arrival == "" {
			arrival = departure
		}
		if departure == "" {
			departure = arrival
		}

		if arrival != "" {
			if entry.Arrival, err = ParseScheduleTime(arrival); err != nil {
				return malformed(StopTimesFile, line, "arrival_time", "%s", err)
			}
			if entry.Departure, err = ParseScheduleTime(departure); err != nil {
				return malformed(StopTimesFile, line, "departure_time", "%s", err)
			}
			entry.Timed = true
		}

		trip.StopTimes = append(trip.StopTimes, entry)
	}

	for _, trip := range feed.Trips {
		sort.Slice(trip.StopTimes, func(i, j int) bool {
			return trip.StopTimes[i].Sequence < trip.StopTimes[j].Sequence
		})
	}

	return nil
}

func (gtfs *Schedule) buildCalendars(feed *Feed) error {
	seen := map[string]bool{}

	for index, row := range gtfs.Calendars {
		line := rowNumber(index)
		if row.ServiceID == "" {
			return malformed(CalendarFile, line, "service_id", "missing value")
		}
		if seen[row.ServiceID] {
			return malformed(CalendarFile, line, "service_id", "duplicate service %q", row.ServiceID)
		}
		seen[row.ServiceID] = true

		rule := CalendarRule{ServiceID: row.ServiceID}
		for i, flag := range row.RunningDays() {
			day := weekOrder[i]
			switch strings.TrimSpace(flag) {
			case "1":
				rule.Days = rule.Days.With(day)
			case "0":
			default:
				return malformed(CalendarFile, line, strings.ToLower(day.String()), "invalid day flag %q", flag)
			}
		}

		var err error
		if rule.Start, err = util.ParseGTFSDate(strings.TrimSpace(row.Start)); err != nil {
			return malformed(CalendarFile, line, "start_date", "%s", err)
		}
		if rule.End, err = util.ParseGTFSDate(strings.TrimSpace(row.End)); err != nil {
			return malformed(CalendarFile, line, "end_date", "%s", err)
		}
		if rule.End.Before(rule.Start) {
			return malformed(CalendarFile, line, "end_date", "end date %s is before start date %s", row.End, row.Start)
		}

		feed.CalendarRules = append(feed.CalendarRules, rule)
	}

	return nil
}

func (gtfs *Schedule) buildCalendarDates(feed *Feed) error {
	seen := map[string]int{}

	for index, row := range gtfs.CalendarDates {
		line := rowNumber(index)
		if row.ServiceID == "" {
			return malformed(CalendarDatesFile, line, "service_id", "missing value")
		}

		date, err := util.ParseGTFSDate(strings.TrimSpace(row.Date))
		if err != nil {
			return malformed(CalendarDatesFile, line, "date", "%s", err)
		}

		key := fmt.Sprintf("%s/%s", row.ServiceID, date.Format(util.GTFSDateFormat))
		if previousLine, exists := seen[key]; exists {
			return malformed(CalendarDatesFile, line, "date", "service %q already has an exception for %s on line %d", row.ServiceID, date.Format(util.GTFSDateFormat), previousLine)
		}
		seen[key] = line

		var exceptionType ExceptionType
		switch strings.TrimSpace(row.ExceptionType) {
		case "1":
			exceptionType = ServiceAdded
		case "2":
			exceptionType = ServiceRemoved
		default:
			return malformed(CalendarDatesFile, line, "exception_type", "invalid exception type %q", row.ExceptionType)
		}

		feed.CalendarExceptions = append(feed.CalendarExceptions, CalendarException{
			ServiceID: row.ServiceID,
			Date:      date,
			Type:      exceptionType,
		})
	}

	return nil
}
