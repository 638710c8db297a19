package spatial

import (
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/connectivity/pkg/diagnostics"
)

const suburbsGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"locality": "PARK", "loc_code": 1234},
      "geometry": {"type": "Polygon", "coordinates": [[[151.15,-33.95],[151.25,-33.95],[151.25,-33.85],[151.15,-33.85],[151.15,-33.95]]]}
    },
    {
      "type": "Feature",
      "properties": {"locality": "HILL", "loc_code": "H1"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[151.05,-33.85],[151.15,-33.85],[151.15,-33.75],[151.05,-33.75],[151.05,-33.85]]]]}
    },
    {
      "type": "Feature",
      "properties": {"loc_code": "X"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"locality": "POINTY"},
      "geometry": {"type": "Point", "coordinates": [151.1, -33.8]}
    }
  ]
}`

func TestLoadGeoJSON(t *testing.T) {
	report := diagnostics.NewReport()
	dataset, err := LoadGeoJSON([]byte(suburbsGeoJSON), LoadOptions{}, report)
	require.NoError(t, err)

	assert.Equal(t, CRSWGS84, dataset.CRS)
	assert.Equal(t, []string{"HILL", "PARK"}, dataset.Names())
	assert.Equal(t, "1234", dataset.Suburbs[1].Code)
	assert.Equal(t, "H1", dataset.Suburbs[0].Code)
	assert.Equal(t, 2, report.Count(diagnostics.KindSkippedSuburb))
}

func TestLoadGeoJSONCustomProperties(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"Park","id":"P"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}
	]}`

	dataset, err := LoadGeoJSON([]byte(data), LoadOptions{NameProperty: "name", CodeProperty: "id"}, nil)
	require.NoError(t, err)
	require.Len(t, dataset.Suburbs, 1)
	assert.Equal(t, "Park", dataset.Suburbs[0].Name)
	assert.Equal(t, "P", dataset.Suburbs[0].Code)
}

func TestLoadGeoJSONUpperCaseProperties(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"LOCALITY":"Park","LOC_CODE":"P"},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}},
		{"type":"Feature","properties":{"Locality":"Hill","loc_code":"H"},"geometry":{"type":"Polygon","coordinates":[[[2,0],[3,0],[3,1],[2,0]]]}}
	]}`

	report := diagnostics.NewReport()
	dataset, err := LoadGeoJSON([]byte(data), LoadOptions{}, report)
	require.NoError(t, err)
	require.Len(t, dataset.Suburbs, 2)
	assert.Equal(t, []string{"Hill", "Park"}, dataset.Names())
	assert.Equal(t, "H", dataset.Suburbs[0].Code)
	assert.Equal(t, "P", dataset.Suburbs[1].Code)
	assert.Equal(t, 0, report.Count(diagnostics.KindSkippedSuburb))
}

func TestPropertyStringPrefersExactKey(t *testing.T) {
	properties := geojson.Properties{"NAME": "upper", "name": "lower"}
	assert.Equal(t, "lower", propertyString(properties, "name"))
	assert.Equal(t, "upper", propertyString(properties, "NAME"))
	assert.Equal(t, "", propertyString(properties, "code"))
}

func TestLoadGeoJSONDeclaredCRS(t *testing.T) {
	data := `{"type":"FeatureCollection",
		"crs":{"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::27700"}},
		"features":[
		{"type":"Feature","properties":{"locality":"Westminster"},"geometry":{"type":"Polygon","coordinates":[[[525000,175000],[535000,175000],[535000,185000],[525000,185000],[525000,175000]]]}}
	]}`

	dataset, err := LoadGeoJSON([]byte(data), LoadOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, CRSBritishNationalGrid, dataset.CRS)

	data = `{"type":"FeatureCollection",
		"crs":{"type":"name","properties":{"name":"EPSG:3857"}},
		"features":[]}`
	_, err = LoadGeoJSON([]byte(data), LoadOptions{}, nil)
	assert.True(t, diagnostics.IsConfigurationError(err))
}

func TestLoadGeoJSONErrors(t *testing.T) {
	_, err := LoadGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`), LoadOptions{}, nil)
	assert.True(t, diagnostics.IsConfigurationError(err))

	_, err = LoadGeoJSON([]byte(`not json`), LoadOptions{}, nil)
	assert.True(t, diagnostics.IsConfigurationError(err))

	_, err = LoadGeoJSONFile("does/not/exist.geojson", LoadOptions{}, nil)
	assert.True(t, diagnostics.IsConfigurationError(err))
}
