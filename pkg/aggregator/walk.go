package aggregator

import (
	"fmt"
	"iter"
	"strings"

	"github.com/travigo/connectivity/pkg/gtfs"
	"github.com/travigo/connectivity/pkg/spatial"
)

type PairMode string

const (
	// PairModeAdjacent pairs each suburb visit with the next one
	PairModeAdjacent PairMode = "adjacent"
	// PairModeDownstream pairs each suburb visit with every later one
	PairModeDownstream PairMode = "downstream"
)

func ParsePairMode(value string) (PairMode, error) {
	switch mode := PairMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return PairModeAdjacent, nil
	case PairModeAdjacent, PairModeDownstream:
		return mode, nil
	}

	return "", fmt.Errorf("unknown pair mode %q, expected adjacent or downstream", value)
}

// Visit is a run of consecutive stops of a trip inside one suburb
type Visit struct {
	Suburb string
	Code   string

	// Arrival at the first stop and departure from the last stop of the run
	Arrival   gtfs.ScheduleTime
	Departure gtfs.ScheduleTime

	// False when the stop at that end has no time and none can be interpolated
	ArrivalTimed   bool
	DepartureTimed bool

	FirstStopID string
	LastStopID  string
}

type Leg struct {
	Origin      Visit
	Destination Visit
	// Zero when the leg is not Timed
	TravelTime int
}

// Timed reports whether both ends of the leg have a schedule time
func (l Leg) Timed() bool {
	return l.Origin.DepartureTimed && l.Destination.ArrivalTimed
}

type stopTime struct {
	arrival   gtfs.ScheduleTime
	departure gtfs.ScheduleTime
	timed     bool
}

// interpolatedStopTimes gives every stop time of the trip an arrival and
// departure. Stops without times get a time spread evenly by stop count
// between the timed stops around them. Stops before the first or after the
// last timed stop stay untimed.
func interpolatedStopTimes(trip *gtfs.Trip) []stopTime {
	times := make([]stopTime, len(trip.StopTimes))

	previous := -1
	for i, entry := range trip.StopTimes {
		if !entry.Timed {
			continue
		}

		times[i] = stopTime{arrival: entry.Arrival, departure: entry.Departure, timed: true}

		if previous >= 0 && i-previous > 1 {
			from := trip.StopTimes[previous].Departure.Seconds()
			span := entry.Arrival.Seconds() - from
			for j := previous + 1; j < i; j++ {
				at := gtfs.ScheduleTime(from + span*(j-previous)/(i-previous))
				times[j] = stopTime{arrival: at, departure: at, timed: true}
			}
		}
		previous = i
	}

	return times
}

// Visits walks the trip's stops in sequence order, dropping stops outside
// every suburb, and merges consecutive stops in the same suburb. Stops without
// times keep their place in the walk with interpolated times.
// The sequence can be ranged over any number of times.
func Visits(trip *gtfs.Trip, stops *spatial.StopSuburbs) iter.Seq[Visit] {
	return func(yield func(Visit) bool) {
		times := interpolatedStopTimes(trip)
		var current *Visit

		for i, entry := range trip.StopTimes {
			assignment, resolved := stops.Lookup(entry.StopID)
			if !resolved {
				continue
			}

			if current != nil && current.Suburb == assignment.Suburb {
				current.Departure = times[i].departure
				current.DepartureTimed = times[i].timed
				current.LastStopID = entry.StopID
				continue
			}

			if current != nil && !yield(*current) {
				return
			}

			current = &Visit{
				Suburb:         assignment.Suburb,
				Code:           assignment.Code,
				Arrival:        times[i].arrival,
				Departure:      times[i].departure,
				ArrivalTimed:   times[i].timed,
				DepartureTimed: times[i].timed,
				FirstStopID:    entry.StopID,
				LastStopID:     entry.StopID,
			}
		}

		if current != nil {
			yield(*current)
		}
	}
}

// Legs turns the trip's visits into suburb to suburb legs. Travel time is the
// destination arrival minus the origin departure, both in seconds since the
// start of the service day.
func Legs(trip *gtfs.Trip, stops *spatial.StopSuburbs, mode PairMode) iter.Seq[Leg] {
	if mode == PairModeDownstream {
		return downstreamLegs(trip, stops)
	}

	return func(yield func(Leg) bool) {
		var previous *Visit
		for visit := range Visits(trip, stops) {
			if previous != nil && !yield(newLeg(*previous, visit)) {
				return
			}

			previous = &visit
		}
	}
}

func downstreamLegs(trip *gtfs.Trip, stops *spatial.StopSuburbs) iter.Seq[Leg] {
	return func(yield func(Leg) bool) {
		var visits []Visit
		for visit := range Visits(trip, stops) {
			visits = append(visits, visit)
		}

		// A trip looping back through a suburb offers the same pair more than
		// once, only the fastest valid leg is kept
		var order []string
		best := map[string]Leg{}

		for i := 0; i < len(visits); i++ {
			for j := i + 1; j < len(visits); j++ {
				if visits[i].Suburb == visits[j].Suburb {
					continue
				}

				leg := newLeg(visits[i], visits[j])
				key := visits[i].Suburb + "\x00" + visits[j].Suburb

				current, exists := best[key]
				if !exists {
					order = append(order, key)
					best[key] = leg
				} else if leg.Timed() && leg.TravelTime > 0 &&
					(!current.Timed() || current.TravelTime <= 0 || leg.TravelTime < current.TravelTime) {
					best[key] = leg
				}
			}
		}

		for _, key := range order {
			if !yield(best[key]) {
				return
			}
		}
	}
}

func newLeg(origin Visit, destination Visit) Leg {
	leg := Leg{
		Origin:      origin,
		Destination: destination,
	}
	if leg.Timed() {
		leg.TravelTime = destination.Arrival.Seconds() - origin.Departure.Seconds()
	}

	return leg
}

func untimedStopTimes(trip *gtfs.Trip) int {
	count := 0
	for _, entry := range trip.StopTimes {
		if !entry.Timed {
			count++
		}
	}

	return count
}
