// Package summary reduces the suburb pair events of a week into weekday and
// weekend connectivity rows, and exports or stores those rows.
package summary

import (
	"cmp"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/calendar"
	"github.com/travigo/connectivity/pkg/ctdf"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Policy decides whether suburb pairs without trips get a row
type Policy string

const (
	PolicySparse Policy = "sparse"
	PolicyDense  Policy = "dense"
)

func ParsePolicy(value string) (Policy, error) {
	switch policy := Policy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "":
		return PolicySparse, nil
	case PolicySparse, PolicyDense:
		return policy, nil
	}

	return "", fmt.Errorf("unknown output policy %q, expected sparse or dense", value)
}

type Options struct {
	Policy Policy
	// Suburb name to code of every suburb the dense matrix covers
	Suburbs map[string]string
}

type groupKey struct {
	origin      string
	destination string
	dayClass    ctdf.DayClass
}

type group struct {
	originCode      string
	destinationCode string
	travelTimes     []int
	routes          map[string]bool
	transportTypes  map[ctdf.TransportType]bool
}

// Reduce groups the events by origin, destination and day class. Flagged
// events are left out, they are summarised by ReduceFlagged.
func Reduce(events []ctdf.SuburbPairEvent, week calendar.Week, options Options) []ctdf.WeeklySummaryRow {
	groups := map[groupKey]*group{}

	for _, event := range events {
		if event.Flagged() {
			continue
		}

		key := groupKey{
			origin:      event.OriginSuburb,
			destination: event.DestinationSuburb,
			dayClass:    event.DayClass(),
		}

		g, exists := groups[key]
		if !exists {
			g = &group{
				originCode:      event.OriginCode,
				destinationCode: event.DestinationCode,
				routes:          map[string]bool{},
				transportTypes:  map[ctdf.TransportType]bool{},
			}
			groups[key] = g
		}

		g.travelTimes = append(g.travelTimes, event.TravelTime)
		g.routes[event.RouteID] = true
		g.transportTypes[event.TransportType] = true
	}

	rows := make([]ctdf.WeeklySummaryRow, 0, len(groups))
	for key, g := range groups {
		rows = append(rows, newRow(key, g, week))
	}

	if options.Policy == PolicyDense {
		rows = append(rows, emptyRows(groups, week, options.Suburbs)...)
	}

	sortRows(rows)

	log.Info().
		Int("events", len(events)).
		Int("rows", len(rows)).
		Str("policy", string(options.Policy)).
		Msg("Reduced suburb pair events")

	return rows
}

func newRow(key groupKey, g *group, week calendar.Week) ctdf.WeeklySummaryRow {
	travelTimes := slices.Clone(g.travelTimes)
	slices.Sort(travelTimes)

	total := 0
	for _, travelTime := range travelTimes {
		total += travelTime
	}
	count := len(travelTimes)

	mean := float64(total) / float64(count)
	minimum := float64(travelTimes[0])
	maximum := float64(travelTimes[count-1])
	median := float64(travelTimes[count/2])
	if count%2 == 0 {
		median = float64(travelTimes[count/2-1]+travelTimes[count/2]) / 2
	}

	transportTypes := sortedKeys(g.transportTypes)

	return ctdf.WeeklySummaryRow{
		WeekStart:         week.Start(),
		OriginSuburb:      key.origin,
		OriginCode:        g.originCode,
		DestinationSuburb: key.destination,
		DestinationCode:   g.destinationCode,
		DayClass:          key.dayClass,
		TripCount:         count,
		MeanTravelTime:    &mean,
		RouteCoverage:     len(g.routes),
		MedianTravelTime:  &median,
		MinTravelTime:     &minimum,
		MaxTravelTime:     &maximum,
		TripsPerDay:       tripsPerDay(count, week.DaysOfClass(key.dayClass)),
		TransportTypes:    transportTypes,
	}
}

// emptyRows fills every origin, destination and day class combination missing
// from the groups. Travel times stay nil, no trip means no travel time.
func emptyRows(groups map[groupKey]*group, week calendar.Week, suburbs map[string]string) []ctdf.WeeklySummaryRow {
	codes := map[string]string{}
	for name, code := range suburbs {
		codes[name] = code
	}
	for key, g := range groups {
		codes[key.origin] = g.originCode
		codes[key.destination] = g.destinationCode
	}

	names := sortedKeys(codes)

	var rows []ctdf.WeeklySummaryRow
	for _, origin := range names {
		for _, destination := range names {
			if origin == destination {
				continue
			}

			for _, dayClass := range ctdf.DayClasses {
				if _, exists := groups[groupKey{origin, destination, dayClass}]; exists {
					continue
				}

				rows = append(rows, ctdf.WeeklySummaryRow{
					WeekStart:         week.Start(),
					OriginSuburb:      origin,
					OriginCode:        codes[origin],
					DestinationSuburb: destination,
					DestinationCode:   codes[destination],
					DayClass:          dayClass,
				})
			}
		}
	}

	return rows
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := maps.Keys(m)
	slices.Sort(keys)

	return keys
}

func tripsPerDay(trips int, days int) float64 {
	if days == 0 {
		return 0
	}

	return math.Round(float64(trips)/float64(days)*100) / 100
}

func dayClassOrder(dayClass ctdf.DayClass) int {
	return slices.Index(ctdf.DayClasses, dayClass)
}

func sortRows(rows []ctdf.WeeklySummaryRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OriginSuburb != rows[j].OriginSuburb {
			return rows[i].OriginSuburb < rows[j].OriginSuburb
		}
		if rows[i].DestinationSuburb != rows[j].DestinationSuburb {
			return rows[i].DestinationSuburb < rows[j].DestinationSuburb
		}
		return dayClassOrder(rows[i].DayClass) < dayClassOrder(rows[j].DayClass)
	})
}

// FlaggedRow counts the legs of a suburb pair kept out of the statistics
type FlaggedRow struct {
	OriginSuburb      string         `csv:"origin_suburb" json:"origin_suburb"`
	DestinationSuburb string         `csv:"destination_suburb" json:"destination_suburb"`
	DayClass          ctdf.DayClass  `csv:"day_class" json:"day_class"`
	Flag              ctdf.EventFlag `csv:"flag" json:"flag"`
	LegCount          int            `csv:"leg_count" json:"leg_count"`
	TripCount         int            `csv:"trip_count" json:"trip_count"`
}

func ReduceFlagged(events []ctdf.SuburbPairEvent) []FlaggedRow {
	type flaggedKey struct {
		groupKey
		flag ctdf.EventFlag
	}

	counts := map[flaggedKey]int{}
	trips := map[flaggedKey]map[string]bool{}
	for _, event := range events {
		if !event.Flagged() {
			continue
		}

		key := flaggedKey{
			groupKey: groupKey{event.OriginSuburb, event.DestinationSuburb, event.DayClass()},
			flag:     event.Flag,
		}
		counts[key]++
		if trips[key] == nil {
			trips[key] = map[string]bool{}
		}
		trips[key][event.TripID] = true
	}

	rows := make([]FlaggedRow, 0, len(counts))
	for key, count := range counts {
		rows = append(rows, FlaggedRow{
			OriginSuburb:      key.origin,
			DestinationSuburb: key.destination,
			DayClass:          key.dayClass,
			Flag:              key.flag,
			LegCount:          count,
			TripCount:         len(trips[key]),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OriginSuburb != rows[j].OriginSuburb {
			return rows[i].OriginSuburb < rows[j].OriginSuburb
		}
		if rows[i].DestinationSuburb != rows[j].DestinationSuburb {
			return rows[i].DestinationSuburb < rows[j].DestinationSuburb
		}
		if rows[i].DayClass != rows[j].DayClass {
			return dayClassOrder(rows[i].DayClass) < dayClassOrder(rows[j].DayClass)
		}
		return rows[i].Flag < rows[j].Flag
	})

	return rows
}
