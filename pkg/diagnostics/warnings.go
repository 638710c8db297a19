package diagnostics

import "fmt"

type WarningKind string

const (
	KindOrphanedService     WarningKind = "orphaned_service"
	KindUnresolvedStop      WarningKind = "unresolved_stop"
	KindOverlappingSuburbs  WarningKind = "overlapping_suburbs"
	KindNonPositiveDuration WarningKind = "non_positive_travel_time"
	KindExcessiveDuration   WarningKind = "excessive_travel_time"
	KindUntimedStopTimes    WarningKind = "untimed_stop_times"
	KindSkippedSuburb       WarningKind = "skipped_suburb"
)

// Warning is a data quality problem that doesn't stop the run
type Warning interface {
	Stage() Stage
	Kind() WarningKind
	// Key identifies the warning so repeats across dates are recorded once
	Key() string
	Error() string
}

type OrphanedService struct {
	ServiceID string
	TripCount int
}

func (w OrphanedService) Stage() Stage      { return StageResolver }
func (w OrphanedService) Kind() WarningKind { return KindOrphanedService }
func (w OrphanedService) Key() string       { return w.ServiceID }
func (w OrphanedService) Error() string {
	return fmt.Sprintf("service %q is referenced by %d trips but has no calendar or calendar_dates entry", w.ServiceID, w.TripCount)
}

type UnresolvedStop struct {
	StopID    string
	Latitude  float64
	Longitude float64
	Located   bool
}

func (w UnresolvedStop) Stage() Stage      { return StageSpatial }
func (w UnresolvedStop) Kind() WarningKind { return KindUnresolvedStop }
func (w UnresolvedStop) Key() string       { return w.StopID }
func (w UnresolvedStop) Error() string {
	if !w.Located {
		return fmt.Sprintf("stop %q has no coordinates", w.StopID)
	}
	return fmt.Sprintf("stop %q at (%f, %f) is not inside any suburb", w.StopID, w.Latitude, w.Longitude)
}

type OverlappingSuburbs struct {
	StopID   string
	Chosen   string
	Overlaps []string
}

func (w OverlappingSuburbs) Stage() Stage      { return StageSpatial }
func (w OverlappingSuburbs) Kind() WarningKind { return KindOverlappingSuburbs }
func (w OverlappingSuburbs) Key() string       { return w.StopID }
func (w OverlappingSuburbs) Error() string {
	return fmt.Sprintf("stop %q is inside %q and also %v, using %q", w.StopID, w.Chosen, w.Overlaps, w.Chosen)
}

type SkippedSuburb struct {
	Index  int
	Reason string
}

func (w SkippedSuburb) Stage() Stage      { return StageSpatial }
func (w SkippedSuburb) Kind() WarningKind { return KindSkippedSuburb }
func (w SkippedSuburb) Key() string       { return fmt.Sprintf("%d", w.Index) }
func (w SkippedSuburb) Error() string {
	return fmt.Sprintf("skipping suburb feature %d: %s", w.Index, w.Reason)
}

// InvalidTravelTime is a leg whose schedule gives a zero, negative or implausibly long duration
type InvalidTravelTime struct {
	TripID            string
	OriginStopID      string
	DestinationStopID string
	TravelTime        int
	Excessive         bool
}

func (w InvalidTravelTime) Stage() Stage { return StageAggregator }
func (w InvalidTravelTime) Kind() WarningKind {
	if w.Excessive {
		return KindExcessiveDuration
	}
	return KindNonPositiveDuration
}
func (w InvalidTravelTime) Key() string {
	return w.TripID + "/" + w.OriginStopID + "/" + w.DestinationStopID
}
func (w InvalidTravelTime) Error() string {
	return fmt.Sprintf("trip %q has a travel time of %ds from stop %q to %q", w.TripID, w.TravelTime, w.OriginStopID, w.DestinationStopID)
}

type UntimedStopTimes struct {
	TripID string
	Count  int
}

func (w UntimedStopTimes) Stage() Stage      { return StageAggregator }
func (w UntimedStopTimes) Kind() WarningKind { return KindUntimedStopTimes }
func (w UntimedStopTimes) Key() string       { return w.TripID }
func (w UntimedStopTimes) Error() string {
	return fmt.Sprintf("trip %q has %d stop times without arrival or departure times", w.TripID, w.Count)
}
