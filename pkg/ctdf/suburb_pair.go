package ctdf

import "time"

type EventFlag string

const (
	EventFlagNone                EventFlag = ""
	EventFlagNonPositiveDuration EventFlag = "non-positive-duration"
	EventFlagExcessiveDuration   EventFlag = "excessive-duration"
	// An end of the leg has no schedule time, so the travel time is unknown
	EventFlagUntimed             EventFlag = "untimed"
)

// SuburbPairEvent is a single trip travelling from one suburb to another on a date
type SuburbPairEvent struct {
	OriginSuburb      string
	OriginCode        string
	DestinationSuburb string
	DestinationCode   string

	Date time.Time

	// Seconds between departing the origin and arriving at the destination
	TravelTime int

	RouteID       string
	TripID        string
	TransportType TransportType

	Flag EventFlag
}

func (e SuburbPairEvent) Flagged() bool {
	return e.Flag != EventFlagNone
}

func (e SuburbPairEvent) DayClass() DayClass {
	return DayClassOf(e.Date)
}
