package pipeline

import (
	"time"

	"github.com/travigo/connectivity/pkg/aggregator"
	"github.com/travigo/connectivity/pkg/calendar"
	"github.com/travigo/connectivity/pkg/config"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/spatial"
	"github.com/travigo/connectivity/pkg/summary"
)

// OptionsFromConfig turns the loaded configuration into run options. Every
// value is checked here so a bad setting fails before any input is read.
func OptionsFromConfig(cfg *config.Config, now time.Time) (Options, error) {
	var options Options
	var err error

	if options.Anchor, err = cfg.AnchorDate(now); err != nil {
		return Options{}, err
	}
	if options.WeekStart, err = calendar.ParseWeekday(cfg.Week.Start); err != nil {
		return Options{}, diagnostics.NewConfigurationError("week.start", "%s", err)
	}
	if options.WeekPolicy, err = calendar.ParseWeekPolicy(cfg.Week.Policy); err != nil {
		return Options{}, diagnostics.NewConfigurationError("week.policy", "%s", err)
	}

	if options.TargetCRS, err = spatial.ParseCRS(cfg.Spatial.CRS); err != nil {
		return Options{}, diagnostics.NewConfigurationError("spatial.crs", "%s", err)
	}
	suburbsCRS, err := spatial.ParseCRS(cfg.Suburbs.CRS)
	if err != nil {
		return Options{}, diagnostics.NewConfigurationError("suburbs.crs", "%s", err)
	}
	options.Suburbs = spatial.LoadOptions{
		NameProperty: cfg.Suburbs.NameProperty,
		CodeProperty: cfg.Suburbs.CodeProperty,
		CRS:          suburbsCRS,
	}

	if options.Aggregation.Mode, err = aggregator.ParsePairMode(cfg.Aggregation.PairMode); err != nil {
		return Options{}, diagnostics.NewConfigurationError("aggregation.pair_mode", "%s", err)
	}
	if options.Aggregation.MaxLegDuration, err = cfg.MaxLegDuration(); err != nil {
		return Options{}, err
	}
	if options.Aggregation.RouteFilter, err = CompileRouteFilter(cfg.Aggregation.RouteFilter); err != nil {
		return Options{}, err
	}

	if options.Summary.Policy, err = summary.ParsePolicy(cfg.Output.Policy); err != nil {
		return Options{}, diagnostics.NewConfigurationError("output.policy", "%s", err)
	}

	options.Workers = max(cfg.Workers, 1)

	return options, nil
}
