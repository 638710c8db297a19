package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/gtfs"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func parkAndHill(t *testing.T) *Resolver {
	t.Helper()

	dataset, err := NewDataset(CRSWGS84, []SuburbPolygon{
		NewSuburbPolygon("Park", "P1", square(151.15, -33.95, 151.25, -33.85)),
		NewSuburbPolygon("Hill", "H1", square(151.05, -33.85, 151.15, -33.75)),
	})
	require.NoError(t, err)

	resolver, err := NewResolver(dataset, CRSWGS84)
	require.NoError(t, err)

	return resolver
}

func stop(id string, latitude, longitude float64) *gtfs.Stop {
	return &gtfs.Stop{ID: id, Latitude: latitude, Longitude: longitude, Located: true}
}

func TestAssign(t *testing.T) {
	resolver := parkAndHill(t)

	for _, tc := range []struct {
		desc     string
		stop     *gtfs.Stop
		suburb   string
		resolved bool
	}{
		{desc: "inside park", stop: stop("A", -33.90, 151.20), suburb: "Park", resolved: true},
		{desc: "inside hill", stop: stop("B", -33.80, 151.10), suburb: "Hill", resolved: true},
		{desc: "on the park edge", stop: stop("E", -33.90, 151.25), suburb: "Park", resolved: true},
		{desc: "outside every suburb", stop: stop("X", -34.50, 150.00), resolved: false},
		{desc: "no coordinates", stop: &gtfs.Stop{ID: "N"}, resolved: false},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			assignment := resolver.Assign(tc.stop)
			assert.Equal(t, tc.resolved, assignment.Resolved)
			assert.Equal(t, tc.suburb, assignment.Suburb)
		})
	}
}

func TestAssignOverlapIsDeterministic(t *testing.T) {
	for _, order := range [][]string{{"Alpha", "Beta"}, {"Beta", "Alpha"}} {
		var suburbs []SuburbPolygon
		for _, name := range order {
			if name == "Alpha" {
				suburbs = append(suburbs, NewSuburbPolygon("Alpha", "", square(0, 0, 2, 2)))
			} else {
				suburbs = append(suburbs, NewSuburbPolygon("Beta", "", square(1, 1, 3, 3)))
			}
		}

		dataset, err := NewDataset(CRSWGS84, suburbs)
		require.NoError(t, err)
		resolver, err := NewResolver(dataset, CRSWGS84)
		require.NoError(t, err)

		report := diagnostics.NewReport()
		table := resolver.AssignAll([]*gtfs.Stop{stop("S", 1.5, 1.5)}, 2, report)

		assignment, ok := table.Lookup("S")
		require.True(t, ok)
		assert.Equal(t, "Alpha", assignment.Suburb)
		assert.Equal(t, []string{"Beta"}, assignment.Overlaps)
		assert.Equal(t, 1, report.Count(diagnostics.KindOverlappingSuburbs))
	}
}

func TestAssignAllIsStable(t *testing.T) {
	resolver := parkAndHill(t)
	stops := []*gtfs.Stop{
		stop("B", -33.80, 151.10),
		stop("A", -33.90, 151.20),
		stop("X", -34.50, 150.00),
		{ID: "N"},
	}

	report := diagnostics.NewReport()
	first := resolver.AssignAll(stops, 4, report)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.Assignments(), resolver.AssignAll(stops, 4, nil).Assignments())
	}

	require.Len(t, first.Assignments(), 4)
	assert.Equal(t, "A", first.Assignments()[0].StopID)
	assert.Equal(t, 2, first.ResolvedCount())
	assert.Equal(t, map[string]string{"Park": "P1", "Hill": "H1"}, first.Suburbs())

	_, ok := first.Lookup("X")
	assert.False(t, ok)
	_, ok = first.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, report.Count(diagnostics.KindUnresolvedStop))
}

func TestNewDatasetErrors(t *testing.T) {
	_, err := NewDataset(CRSWGS84, nil)
	assert.True(t, diagnostics.IsConfigurationError(err))

	_, err = NewDataset(CRSWGS84, []SuburbPolygon{
		NewSuburbPolygon("Park", "", square(0, 0, 1, 1)),
		NewSuburbPolygon("Park", "", square(1, 1, 2, 2)),
	})
	assert.True(t, diagnostics.IsConfigurationError(err))

	_, err = NewResolver(nil, CRSWGS84)
	assert.True(t, diagnostics.IsConfigurationError(err))
}

func TestBritishNationalGridSuburbs(t *testing.T) {
	dataset, err := NewDataset(CRSBritishNationalGrid, []SuburbPolygon{
		NewSuburbPolygon("Westminster", "W", square(525000, 175000, 535000, 185000)),
	})
	require.NoError(t, err)

	resolver, err := NewResolver(dataset, CRSWGS84)
	require.NoError(t, err)
	assert.Equal(t, CRSWGS84, resolver.Dataset().CRS)

	assignment := resolver.Assign(stop("CX", 51.5074, -0.1278))
	assert.True(t, assignment.Resolved)
	assert.Equal(t, "Westminster", assignment.Suburb)

	// The source dataset keeps its own coordinates
	assert.Equal(t, CRSBritishNationalGrid, dataset.CRS)
}

func TestUnreachableTargetCRS(t *testing.T) {
	dataset, err := NewDataset(CRSWGS84, []SuburbPolygon{
		NewSuburbPolygon("Park", "", square(0, 0, 1, 1)),
	})
	require.NoError(t, err)

	_, err = NewResolver(dataset, CRSBritishNationalGrid)
	assert.True(t, diagnostics.IsConfigurationError(err))
}

func TestParseCRS(t *testing.T) {
	crs, err := ParseCRS("urn:ogc:def:crs:OGC:1.3:CRS84")
	require.NoError(t, err)
	assert.Equal(t, CRSWGS84, crs)

	crs, err = ParseCRS("EPSG:27700")
	require.NoError(t, err)
	assert.Equal(t, CRSBritishNationalGrid, crs)

	for value, expected := range map[string]CRS{
		"EPSG:4283":                   CRSGDA94,
		"gda2020":                     CRSGDA2020,
		"urn:ogc:def:crs:EPSG::7844":  CRSGDA2020,
		"EPSG:28356":                  "EPSG:28356",
		"urn:ogc:def:crs:EPSG::7856":  "EPSG:7856",
		"urn:ogc:def:crs:EPSG::4326":  CRSWGS84,
		"EPSG:28349":                  "EPSG:28349",
	} {
		crs, err := ParseCRS(value)
		require.NoError(t, err, value)
		assert.Equal(t, expected, crs, value)
	}

	for _, value := range []string{"EPSG:3857", "EPSG:28357", "EPSG:7848", "epsg:abc"} {
		_, err = ParseCRS(value)
		assert.Error(t, err, value)
	}
}

func TestMapGridOfAustraliaSuburbs(t *testing.T) {
	// Brisbane CBD, zone 56
	point := mgaToGeographic(orb.Point{502479.869, 6961528.093}, 56)
	assert.InDelta(t, 153.0251, point[0], 1e-6)
	assert.InDelta(t, -27.4698, point[1], 1e-6)

	point = mgaToGeographic(orb.Point{500000, 7000000}, 56)
	assert.InDelta(t, 153.0, point[0], 1e-9)

	dataset, err := NewDataset("EPSG:7856", []SuburbPolygon{
		NewSuburbPolygon("Brisbane City", "BC", square(501000, 6960000, 504000, 6963000)),
	})
	require.NoError(t, err)

	resolver, err := NewResolver(dataset, CRSWGS84)
	require.NoError(t, err)

	assignment := resolver.Assign(stop("CENTRAL", -27.4698, 153.0251))
	assert.True(t, assignment.Resolved)
	assert.Equal(t, "Brisbane City", assignment.Suburb)

	assignment = resolver.Assign(stop("SYDNEY", -33.8688, 151.2093))
	assert.False(t, assignment.Resolved)
}

func TestGDASuburbsAreUsedAsWGS84(t *testing.T) {
	for _, crs := range []CRS{CRSGDA94, CRSGDA2020} {
		dataset, err := NewDataset(crs, []SuburbPolygon{
			NewSuburbPolygon("Park", "P", square(151.15, -33.95, 151.25, -33.85)),
		})
		require.NoError(t, err)

		resolver, err := NewResolver(dataset, CRSWGS84)
		require.NoError(t, err, crs)
		assert.Equal(t, CRSWGS84, resolver.Dataset().CRS)
		assert.True(t, resolver.Assign(stop("P1", -33.90, 151.20)).Resolved, crs)
	}
}
