// Package aggregator walks the trips running on a date and turns them into
// suburb to suburb travel events.
package aggregator

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/connectivity/pkg/calendar"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/gtfs"
	"github.com/travigo/connectivity/pkg/spatial"
	"github.com/travigo/connectivity/pkg/util"
)

type Options struct {
	Mode PairMode
	// Legs longer than this are flagged, zero disables the check
	MaxLegDuration time.Duration
	Workers        int
	// Only trips on routes matching the filter contribute, nil keeps every route
	RouteFilter func(route *gtfs.Route) bool
}

// Result splits the events of a run into the ones fit for statistics and the
// flagged ones
type Result struct {
	Events  []ctdf.SuburbPairEvent
	Flagged []ctdf.SuburbPairEvent
}

func (r *Result) append(other Result) {
	r.Events = append(r.Events, other.Events...)
	r.Flagged = append(r.Flagged, other.Flagged...)
}

type Aggregator struct {
	feed    *gtfs.Feed
	stops   *spatial.StopSuburbs
	options Options
	report  *diagnostics.Report
}

func New(feed *gtfs.Feed, stops *spatial.StopSuburbs, options Options, report *diagnostics.Report) *Aggregator {
	if options.Mode == "" {
		options.Mode = PairModeAdjacent
	}
	if options.Workers < 1 {
		options.Workers = 1
	}

	return &Aggregator{
		feed:    feed,
		stops:   stops,
		options: options,
		report:  report,
	}
}

type tripEvents struct {
	index  int
	result Result
}

// Aggregate produces the events of every trip running on the date. Trips are
// walked in parallel and merged back in trip order.
func (a *Aggregator) Aggregate(date time.Time, active calendar.ActiveServiceSet) Result {
	date = util.DateOnly(date)

	p := pool.NewWithResults[tripEvents]().WithMaxGoroutines(a.options.Workers)
	running := 0

	for index, trip := range a.feed.Trips {
		if !active.Contains(trip.ServiceID) {
			continue
		}

		route := a.feed.Routes[trip.RouteID]
		if a.options.RouteFilter != nil && !a.options.RouteFilter(route) {
			continue
		}

		running++
		p.Go(func() tripEvents {
			return tripEvents{
				index:  index,
				result: a.walkTrip(date, trip, route),
			}
		})
	}

	walked := p.Wait()
	sort.Slice(walked, func(i, j int) bool {
		return walked[i].index < walked[j].index
	})

	var result Result
	for _, trip := range walked {
		result.append(trip.result)
	}

	log.Debug().
		Str("date", date.Format(util.ISODateFormat)).
		Int("trips", running).
		Int("events", len(result.Events)).
		Int("flagged", len(result.Flagged)).
		Msg("Aggregated trips")

	return result
}

// AggregateWeek runs Aggregate for each resolved date, in date order
func (a *Aggregator) AggregateWeek(days []calendar.DayServices) Result {
	var result Result
	for _, day := range days {
		result.append(a.Aggregate(day.Date, day.Active))
	}

	log.Info().
		Int("days", len(days)).
		Int("events", len(result.Events)).
		Int("flagged", len(result.Flagged)).
		Msg("Aggregated target week")

	return result
}

func (a *Aggregator) walkTrip(date time.Time, trip *gtfs.Trip, route *gtfs.Route) Result {
	var result Result

	if untimed := untimedStopTimes(trip); untimed > 0 {
		a.report.Add(diagnostics.UntimedStopTimes{TripID: trip.ID, Count: untimed})
	}

	for leg := range Legs(trip, a.stops, a.options.Mode) {
		event := ctdf.SuburbPairEvent{
			OriginSuburb:      leg.Origin.Suburb,
			OriginCode:        leg.Origin.Code,
			DestinationSuburb: leg.Destination.Suburb,
			DestinationCode:   leg.Destination.Code,
			Date:              date,
			TravelTime:        leg.TravelTime,
			RouteID:           trip.RouteID,
			TripID:            trip.ID,
			TransportType:     route.TransportType,
			Flag:              a.flag(leg),
		}

		if !event.Flagged() {
			result.Events = append(result.Events, event)
			continue
		}

		result.Flagged = append(result.Flagged, event)
		if event.Flag == ctdf.EventFlagUntimed {
			continue
		}
		a.report.Add(diagnostics.InvalidTravelTime{
			TripID:            trip.ID,
			OriginStopID:      leg.Origin.LastStopID,
			DestinationStopID: leg.Destination.FirstStopID,
			TravelTime:        leg.TravelTime,
			Excessive:         event.Flag == ctdf.EventFlagExcessiveDuration,
		})
	}

	return result
}

func (a *Aggregator) flag(leg Leg) ctdf.EventFlag {
	if !leg.Timed() {
		return ctdf.EventFlagUntimed
	}

	travelTime := leg.TravelTime
	if travelTime <= 0 {
		return ctdf.EventFlagNonPositiveDuration
	}
	if a.options.MaxLegDuration > 0 && time.Duration(travelTime)*time.Second > a.options.MaxLegDuration {
		return ctdf.EventFlagExcessiveDuration
	}

	return ctdf.EventFlagNone
}
