// Package pipeline runs a GTFS feed and a suburb boundary file through the
// calendar, spatial, aggregation and reduction stages.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/aggregator"
	"github.com/travigo/connectivity/pkg/calendar"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/gtfs"
	"github.com/travigo/connectivity/pkg/spatial"
	"github.com/travigo/connectivity/pkg/summary"
)

type Input struct {
	FeedPath    string
	SuburbsPath string
}

type Options struct {
	Anchor     time.Time
	WeekStart  time.Weekday
	WeekPolicy calendar.WeekPolicy

	TargetCRS   spatial.CRS
	Suburbs     spatial.LoadOptions
	Aggregation aggregator.Options
	Summary     summary.Options

	Workers int
}

type Result struct {
	Week        calendar.Week
	Rows        []ctdf.WeeklySummaryRow
	Flagged     []summary.FlaggedRow
	Assignments []spatial.Assignment
	Days        []calendar.DayServices
	Report      *diagnostics.Report
}

// Prepared is everything a run needs that does not depend on the trips, so
// configuration errors surface before the feed is read
type Prepared struct {
	Week     calendar.Week
	Resolver *spatial.Resolver
	Report   *diagnostics.Report
}

func Prepare(input Input, options Options) (*Prepared, error) {
	report := diagnostics.NewReport()

	week, err := calendar.TargetWeek(options.Anchor, options.WeekStart, options.WeekPolicy)
	if err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageConfig, diagnostics.NewConfigurationError("week", "%s", err))
	}

	if input.SuburbsPath == "" {
		return nil, diagnostics.WrapStage(diagnostics.StageConfig, diagnostics.NewConfigurationError("suburbs.path", "no suburb boundary file set"))
	}

	dataset, err := spatial.LoadGeoJSONFile(input.SuburbsPath, options.Suburbs, report)
	if err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageSpatial, err)
	}

	resolver, err := spatial.NewResolver(dataset, options.TargetCRS)
	if err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageSpatial, err)
	}

	return &Prepared{
		Week:     week,
		Resolver: resolver,
		Report:   report,
	}, nil
}

// LoadFeed reads and validates the GTFS archive at path
func LoadFeed(path string) (*gtfs.Feed, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageLoader, err)
	}
	defer file.Close()

	schedule := &gtfs.Schedule{}
	if err := schedule.ParseFile(file); err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageLoader, err)
	}

	feed, err := schedule.Build()
	if err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageLoader, err)
	}

	log.Info().
		Int("stops", len(feed.Stops)).
		Int("routes", len(feed.Routes)).
		Int("trips", len(feed.Trips)).
		Int("calendars", len(feed.CalendarRules)).
		Int("exceptions", len(feed.CalendarExceptions)).
		Msg("Loaded GTFS feed")

	return feed, nil
}

// ResolveServices resolves the active services of every date of the week and
// reports services trips use but no calendar mentions
func ResolveServices(feed *gtfs.Feed, week calendar.Week, workers int, report *diagnostics.Report) []calendar.DayServices {
	resolver := calendar.NewResolverFromFeed(feed)

	for _, orphan := range resolver.OrphanedServices(feed.ServiceTripCounts()) {
		report.Add(orphan)
	}

	days := resolver.ResolveWeek(week, workers)

	log.Info().
		Str("week", week.String()).
		Int("services", len(resolver.Services())).
		Msg("Resolved service calendar")

	return days
}

func Run(ctx context.Context, input Input, options Options) (*Result, error) {
	prepared, err := Prepare(input, options)
	if err != nil {
		return nil, err
	}
	report := prepared.Report

	log.Info().Str("week", prepared.Week.String()).Str("feed", input.FeedPath).Msg("Starting connectivity run")

	if err := ctx.Err(); err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageLoader, err)
	}
	feed, err := LoadFeed(input.FeedPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageResolver, err)
	}
	days := ResolveServices(feed, prepared.Week, options.Workers, report)

	if err := ctx.Err(); err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageSpatial, err)
	}
	stops := prepared.Resolver.AssignAll(feed.SortedStops(), options.Workers, report)

	if err := ctx.Err(); err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageAggregator, err)
	}
	aggregationOptions := options.Aggregation
	aggregationOptions.Workers = options.Workers
	aggregated := aggregator.New(feed, stops, aggregationOptions, report).AggregateWeek(days)

	if err := ctx.Err(); err != nil {
		return nil, diagnostics.WrapStage(diagnostics.StageReducer, err)
	}
	summaryOptions := options.Summary
	if summaryOptions.Suburbs == nil {
		summaryOptions.Suburbs = stops.Suburbs()
	}
	rows := summary.Reduce(aggregated.Events, prepared.Week, summaryOptions)
	flagged := summary.ReduceFlagged(aggregated.Flagged)

	log.Info().
		Int("events", len(aggregated.Events)).
		Int("flagged", len(aggregated.Flagged)).
		Int("rows", len(rows)).
		Msg("Reduced weekly summary")

	return &Result{
		Week:        prepared.Week,
		Rows:        rows,
		Flagged:     flagged,
		Assignments: stops.Assignments(),
		Days:        days,
		Report:      report,
	}, nil
}

// Export writes the result files into directory
func (r *Result) Export(directory string) error {
	return diagnostics.WrapStage(diagnostics.StageExport, summary.ExportFiles(directory, r.Rows, r.Flagged, r.Assignments))
}
