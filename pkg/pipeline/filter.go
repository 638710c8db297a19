package pipeline

import (
	"github.com/expr-lang/expr"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/gtfs"
)

// routeEnvironment is what a route filter expression can see
type routeEnvironment struct {
	ID        string
	ShortName string
	LongName  string
	Type      string
	RouteType int
}

// CompileRouteFilter turns an expression like `Type == "Bus"` into a route
// predicate. An empty expression keeps every route.
func CompileRouteFilter(expression string) (func(route *gtfs.Route) bool, error) {
	if expression == "" {
		return nil, nil
	}

	program, err := expr.Compile(expression, expr.Env(routeEnvironment{}), expr.AsBool())
	if err != nil {
		return nil, diagnostics.NewConfigurationError("aggregation.route_filter", "%s", err)
	}

	return func(route *gtfs.Route) bool {
		output, err := expr.Run(program, routeEnvironment{
			ID:        route.ID,
			ShortName: route.ShortName,
			LongName:  route.LongName,
			Type:      string(route.TransportType),
			RouteType: route.RouteType,
		})
		if err != nil {
			log.Error().Err(err).Str("route", route.ID).Msg("Route filter failed")
			return false
		}

		matched, _ := output.(bool)
		return matched
	}, nil
}
