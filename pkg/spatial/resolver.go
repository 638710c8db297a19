// Package spatial assigns transit stops to the suburb polygon containing them.
package spatial

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/gtfs"
)

// Assignment is the outcome of placing one stop
type Assignment struct {
	StopID    string
	StopName  string
	Latitude  float64
	Longitude float64
	Located   bool

	Suburb   string
	Code     string
	Resolved bool
	// Other suburbs that also contain the stop
	Overlaps []string
}

// Resolver tests stops against suburbs in a fixed order
type Resolver struct {
	dataset *Dataset
}

// NewResolver reprojects the suburbs into the target reference system. A
// pairing that cannot be reprojected is a configuration error.
func NewResolver(dataset *Dataset, target CRS) (*Resolver, error) {
	if dataset == nil || len(dataset.Suburbs) == 0 {
		return nil, diagnostics.NewConfigurationError(settingSuburbs, "suburb dataset is empty")
	}

	reprojected, err := dataset.Reproject(target)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		dataset: reprojected,
	}, nil
}

func (r *Resolver) Dataset() *Dataset {
	return r.dataset
}

func (r *Resolver) Assign(stop *gtfs.Stop) Assignment {
	assignment := Assignment{
		StopID:    stop.ID,
		StopName:  stop.Name,
		Latitude:  stop.Latitude,
		Longitude: stop.Longitude,
		Located:   stop.Located,
	}

	if !stop.Located {
		return assignment
	}

	point := orb.Point{stop.Longitude, stop.Latitude}
	for i := range r.dataset.Suburbs {
		suburb := &r.dataset.Suburbs[i]
		if !suburb.Contains(point) {
			continue
		}

		if !assignment.Resolved {
			assignment.Suburb = suburb.Name
			assignment.Code = suburb.Code
			assignment.Resolved = true
		} else {
			assignment.Overlaps = append(assignment.Overlaps, suburb.Name)
		}
	}

	return assignment
}

// AssignAll resolves every stop into a lookup table, reporting unresolved
// stops and stops inside overlapping suburbs
func (r *Resolver) AssignAll(stops []*gtfs.Stop, workers int, report *diagnostics.Report) *StopSuburbs {
	p := pool.NewWithResults[Assignment]().WithMaxGoroutines(max(workers, 1))
	for _, stop := range stops {
		p.Go(func() Assignment {
			return r.Assign(stop)
		})
	}

	table := newStopSuburbs(p.Wait())

	for _, assignment := range table.assignments {
		if !assignment.Resolved {
			report.Add(diagnostics.UnresolvedStop{
				StopID:    assignment.StopID,
				Latitude:  assignment.Latitude,
				Longitude: assignment.Longitude,
				Located:   assignment.Located,
			})
		} else if len(assignment.Overlaps) > 0 {
			report.Add(diagnostics.OverlappingSuburbs{
				StopID:   assignment.StopID,
				Chosen:   assignment.Suburb,
				Overlaps: assignment.Overlaps,
			})
		}
	}

	log.Info().
		Int("stops", len(table.assignments)).
		Int("resolved", table.resolvedCount).
		Int("unresolved", len(table.assignments)-table.resolvedCount).
		Msg("Assigned stops to suburbs")

	return table
}

// StopSuburbs is the immutable stop to suburb table of a run
type StopSuburbs struct {
	assignments   []Assignment
	byStop        map[string]int
	resolvedCount int
}

func newStopSuburbs(assignments []Assignment) *StopSuburbs {
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].StopID < assignments[j].StopID
	})

	table := &StopSuburbs{
		assignments: assignments,
		byStop:      make(map[string]int, len(assignments)),
	}
	for index, assignment := range assignments {
		table.byStop[assignment.StopID] = index
		if assignment.Resolved {
			table.resolvedCount++
		}
	}

	return table
}

// Lookup returns the assignment of a stop, ok is false when the stop is
// unknown or unresolved
func (s *StopSuburbs) Lookup(stopID string) (Assignment, bool) {
	index, exists := s.byStop[stopID]
	if !exists {
		return Assignment{}, false
	}

	assignment := s.assignments[index]
	return assignment, assignment.Resolved
}

// Assignments lists every stop, resolved or not, ordered by stop ID
func (s *StopSuburbs) Assignments() []Assignment {
	return s.assignments
}

func (s *StopSuburbs) ResolvedCount() int {
	return s.resolvedCount
}

// Suburbs lists the suburbs holding at least one resolved stop, with their codes
func (s *StopSuburbs) Suburbs() map[string]string {
	suburbs := map[string]string{}
	for _, assignment := range s.assignments {
		if assignment.Resolved {
			suburbs[assignment.Suburb] = assignment.Code
		}
	}

	return suburbs
}
