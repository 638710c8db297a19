package spatial

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/travigo/connectivity/pkg/diagnostics"
)

const settingSuburbs = "suburbs"

// SuburbPolygon is a named suburb boundary, a polygon or multipolygon
type SuburbPolygon struct {
	Name     string
	Code     string
	Geometry orb.Geometry

	bound orb.Bound
}

func NewSuburbPolygon(name string, code string, geometry orb.Geometry) SuburbPolygon {
	return SuburbPolygon{
		Name:     name,
		Code:     code,
		Geometry: geometry,
		bound:    geometry.Bound(),
	}
}

// Contains reports whether the lon/lat point is inside the suburb. Points on
// the boundary count as inside.
func (s *SuburbPolygon) Contains(point orb.Point) bool {
	if !s.bound.Contains(point) {
		return false
	}

	switch geometry := s.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geometry, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geometry, point)
	}

	return false
}

// Dataset is an immutable collection of suburbs in one reference system
type Dataset struct {
	CRS     CRS
	Suburbs []SuburbPolygon
}

// NewDataset validates the suburbs and orders them by name then code, the
// order they are tested in
func NewDataset(crs CRS, suburbs []SuburbPolygon) (*Dataset, error) {
	if len(suburbs) == 0 {
		return nil, diagnostics.NewConfigurationError(settingSuburbs, "suburb dataset is empty")
	}

	names := map[string]bool{}
	for _, suburb := range suburbs {
		if suburb.Name == "" {
			return nil, diagnostics.NewConfigurationError(settingSuburbs, "suburb has no name")
		}
		if names[suburb.Name] {
			return nil, diagnostics.NewConfigurationError(settingSuburbs, "suburb %q appears more than once", suburb.Name)
		}
		names[suburb.Name] = true

		switch suburb.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, diagnostics.NewConfigurationError(settingSuburbs, "suburb %q has a %s geometry, expected a polygon", suburb.Name, suburb.Geometry.GeoJSONType())
		}
	}

	ordered := make([]SuburbPolygon, len(suburbs))
	copy(ordered, suburbs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].Code < ordered[j].Code
	})

	return &Dataset{
		CRS:     crs,
		Suburbs: ordered,
	}, nil
}

// Reproject returns a copy of the dataset in the target reference system
func (d *Dataset) Reproject(target CRS) (*Dataset, error) {
	if d.CRS == target {
		return d, nil
	}

	suburbs := make([]SuburbPolygon, 0, len(d.Suburbs))
	for _, suburb := range d.Suburbs {
		geometry, err := Reproject(suburb.Geometry, d.CRS, target)
		if err != nil {
			return nil, err
		}

		suburbs = append(suburbs, NewSuburbPolygon(suburb.Name, suburb.Code, geometry))
	}

	return &Dataset{
		CRS:     target,
		Suburbs: suburbs,
	}, nil
}

func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.Suburbs))
	for _, suburb := range d.Suburbs {
		names = append(names, suburb.Name)
	}

	return names
}
