package gtfs

// Raw rows as they appear in the feed. Fields are kept as strings so that
// validation can report the table, row and field of a bad value.

type StopRow struct {
	ID           string `csv:"stop_id"`
	Code         string `csv:"stop_code"`
	Name         string `csv:"stop_name"`
	Latitude     string `csv:"stop_lat"`
	Longitude    string `csv:"stop_lon"`
	ZoneID       string `csv:"zone_id"`
	Type         string `csv:"location_type"`
	Parent       string `csv:"parent_station"`
	PlatformCode string `csv:"platform_code"`
}

type RouteRow struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

type TripRow struct {
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	ID          string `csv:"trip_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID string `csv:"direction_id"`
}

type StopTimeRow struct {
	TripID        string `csv:"trip_id"`
	ArrivalTime   string `csv:"arrival_time"`
	DepartureTime string `csv:"departure_time"`
	StopID        string `csv:"stop_id"`
	StopSequence  string `csv:"stop_sequence"`
	PickupType    string `csv:"pickup_type"`
	DropOffType   string `csv:"drop_off_type"`
}

type CalendarRow struct {
	ServiceID string `csv:"service_id"`
	Monday    string `csv:"monday"`
	Tuesday   string `csv:"tuesday"`
	Wednesday string `csv:"wednesday"`
	Thursday  string `csv:"thursday"`
	Friday    string `csv:"friday"`
	Saturday  string `csv:"saturday"`
	Sunday    string `csv:"sunday"`
	Start     string `csv:"start_date"`
	End       string `csv:"end_date"`
}

// RunningDays returns the raw day flags in Monday..Sunday order
func (c *CalendarRow) RunningDays() []string {
	return []string{c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday}
}

type CalendarDateRow struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType string `csv:"exception_type"`
}
