// Package calendar works out which services run on the dates of the target week.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/gtfs"
	"github.com/travigo/connectivity/pkg/util"
)

// ActiveServiceSet is the set of service IDs running on one date
type ActiveServiceSet map[string]struct{}

func (s ActiveServiceSet) Contains(serviceID string) bool {
	_, exists := s[serviceID]
	return exists
}

func (s ActiveServiceSet) Len() int {
	return len(s)
}

func (s ActiveServiceSet) Sorted() []string {
	services := make([]string, 0, len(s))
	for serviceID := range s {
		services = append(services, serviceID)
	}
	sort.Strings(services)

	return services
}

// DayServices is the resolution of a single date of the target week
type DayServices struct {
	Date   time.Time
	Active ActiveServiceSet
}

// Resolver holds the layered availability of every service in the feed. It is
// immutable once built and safe to use from many goroutines.
type Resolver struct {
	availability map[string]*ctdf.Availability
	services     []string
}

func NewResolver(rules []gtfs.CalendarRule, exceptions []gtfs.CalendarException) *Resolver {
	resolver := &Resolver{
		availability: map[string]*ctdf.Availability{},
	}

	for _, rule := range rules {
		availability := resolver.serviceAvailability(rule.ServiceID)

		for _, day := range rule.Days.Days() {
			availability.Match = append(availability.Match, ctdf.AvailabilityRule{
				Type:  ctdf.AvailabilityDayOfWeek,
				Value: day.String(),
			})
		}

		availability.Condition = append(availability.Condition, ctdf.AvailabilityRule{
			Type:  ctdf.AvailabilityDateRange,
			Value: fmt.Sprintf("%s:%s", rule.Start.Format(util.ISODateFormat), rule.End.Format(util.ISODateFormat)),
		})
	}

	// Exceptions sit above the weekly pattern so an added date outside of the
	// rule's date range still runs
	for _, exception := range exceptions {
		availability := resolver.serviceAvailability(exception.ServiceID)
		rule := ctdf.AvailabilityRule{
			Type:  ctdf.AvailabilityDate,
			Value: exception.Date.Format(util.ISODateFormat),
		}

		switch exception.Type {
		case gtfs.ServiceAdded:
			availability.Include = append(availability.Include, rule)
		case gtfs.ServiceRemoved:
			availability.Exclude = append(availability.Exclude, rule)
		}
	}

	for serviceID := range resolver.availability {
		resolver.services = append(resolver.services, serviceID)
	}
	sort.Strings(resolver.services)

	return resolver
}

func NewResolverFromFeed(feed *gtfs.Feed) *Resolver {
	return NewResolver(feed.CalendarRules, feed.CalendarExceptions)
}

func (r *Resolver) serviceAvailability(serviceID string) *ctdf.Availability {
	availability, exists := r.availability[serviceID]
	if !exists {
		availability = &ctdf.Availability{}
		r.availability[serviceID] = availability
	}

	return availability
}

// Services lists every service ID that has calendar information
func (r *Resolver) Services() []string {
	return r.services
}

func (r *Resolver) Availability(serviceID string) *ctdf.Availability {
	return r.availability[serviceID]
}

func (r *Resolver) Known(serviceID string) bool {
	_, exists := r.availability[serviceID]
	return exists
}

// Resolve returns the services running on the date
func (r *Resolver) Resolve(date time.Time) ActiveServiceSet {
	date = util.DateOnly(date)
	active := ActiveServiceSet{}

	for _, serviceID := range r.services {
		if r.availability[serviceID].MatchDate(date) {
			active[serviceID] = struct{}{}
		}
	}

	return active
}

// ResolveWeek resolves every date of the week independently, in date order
func (r *Resolver) ResolveWeek(week Week, workers int) []DayServices {
	p := pool.NewWithResults[DayServices]().WithMaxGoroutines(max(workers, 1))

	for _, date := range week.Dates {
		p.Go(func() DayServices {
			return DayServices{
				Date:   date,
				Active: r.Resolve(date),
			}
		})
	}

	days := p.Wait()
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	for _, day := range days {
		log.Debug().
			Str("date", day.Date.Format(util.ISODateFormat)).
			Int("services", day.Active.Len()).
			Msg("Resolved active services")
	}

	return days
}

// OrphanedServices finds trip service IDs with no calendar information at all.
// They never run, which is reported rather than treated as an error.
func (r *Resolver) OrphanedServices(serviceTripCounts map[string]int) []diagnostics.OrphanedService {
	var orphans []diagnostics.OrphanedService
	for serviceID, tripCount := range serviceTripCounts {
		if !r.Known(serviceID) {
			orphans = append(orphans, diagnostics.OrphanedService{
				ServiceID: serviceID,
				TripCount: tripCount,
			})
		}
	}

	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].ServiceID < orphans[j].ServiceID
	})

	return orphans
}
