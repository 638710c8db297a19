package spatial

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulcager/osgridref"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/travigo/connectivity/pkg/diagnostics"
)

// CRS is a coordinate reference system in EPSG:<code> form
type CRS string

const (
	CRSWGS84               CRS = "EPSG:4326"
	CRSBritishNationalGrid CRS = "EPSG:27700"
	CRSGDA94               CRS = "EPSG:4283"
	CRSGDA2020             CRS = "EPSG:7844"
)

const (
	crsSettingTarget        = "spatial.crs"
	crsSettingSuburbDataset = "suburbs.crs"
)

// Map Grid of Australia zones are EPSG 28349-28356 on GDA94 and 7849-7856 on GDA2020
const (
	mgaMinZone       = 49
	mgaMaxZone       = 56
	mgaGDA94Base     = 28300
	mgaGDA2020Base   = 7800
	mgaFalseEasting  = 500000.0
	mgaFalseNorthing = 10000000.0
	mgaScaleFactor   = 0.9996
)

var crsAliases = map[string]CRS{
	"wgs84":   CRSWGS84,
	"crs84":   CRSWGS84,
	"osgb36":  CRSBritishNationalGrid,
	"gda94":   CRSGDA94,
	"gda2020": CRSGDA2020,
}

var crsCode = regexp.MustCompile(`^(?:epsg:|urn:ogc:def:crs:epsg:[0-9.]*:)([0-9]+)$`)

func ParseCRS(value string) (CRS, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "urn:ogc:def:crs:ogc:1.3:crs84" {
		return CRSWGS84, nil
	}

	if crs, exists := crsAliases[value]; exists {
		return crs, nil
	}

	if match := crsCode.FindStringSubmatch(value); match != nil {
		code, err := strconv.Atoi(match[1])
		if err == nil {
			crs := CRS(fmt.Sprintf("EPSG:%d", code))
			if crs == CRSWGS84 || crs == CRSBritishNationalGrid || isGDAGeographic(crs) {
				return crs, nil
			}
			if _, exists := crs.mgaZone(); exists {
				return crs, nil
			}
		}
	}

	return "", fmt.Errorf("unsupported coordinate reference system %q", value)
}

// isGDAGeographic reports whether the reference system is GDA94 or GDA2020
// latitude/longitude. Both sit within 2m of WGS84 and are read as WGS84
// without a datum shift.
func isGDAGeographic(crs CRS) bool {
	return crs == CRSGDA94 || crs == CRSGDA2020
}

func (c CRS) mgaZone() (int, bool) {
	code, err := strconv.Atoi(strings.TrimPrefix(string(c), "EPSG:"))
	if err != nil {
		return 0, false
	}

	for _, base := range []int{mgaGDA94Base, mgaGDA2020Base} {
		if zone := code - base; zone >= mgaMinZone && zone <= mgaMaxZone {
			return zone, true
		}
	}

	return 0, false
}

// Reproject converts a geometry between reference systems. Stops are always
// WGS84 so that is the only target that can be reached.
func Reproject(geometry orb.Geometry, from CRS, to CRS) (orb.Geometry, error) {
	if from == to {
		return geometry, nil
	}

	if to != CRSWGS84 {
		return nil, diagnostics.NewConfigurationError(crsSettingTarget, "cannot reproject %s to %s, stops are %s", from, to, CRSWGS84)
	}

	if isGDAGeographic(from) {
		return orb.Clone(geometry), nil
	}

	if zone, exists := from.mgaZone(); exists {
		return project.Geometry(orb.Clone(geometry), func(point orb.Point) orb.Point {
			return mgaToGeographic(point, zone)
		}), nil
	}

	switch from {
	case CRSBritishNationalGrid:
		var projectionErr error
		projected := project.Geometry(orb.Clone(geometry), func(point orb.Point) orb.Point {
			converted, err := britishNationalGridToWGS84(point)
			if err != nil && projectionErr == nil {
				projectionErr = err
			}
			return converted
		})
		if projectionErr != nil {
			return nil, projectionErr
		}

		return projected, nil
	}

	return nil, diagnostics.NewConfigurationError(crsSettingSuburbDataset, "no reprojection from %s to %s", from, to)
}

// mgaToGeographic takes an MGA easting/northing point and returns lon/lat on
// the GRS80 ellipsoid, using the inverse transverse Mercator series
func mgaToGeographic(point orb.Point, zone int) orb.Point {
	const (
		a  = 6378137.0
		f  = 1 / 298.257222101
		e2 = f * (2 - f)
	)
	ep2 := e2 / (1 - e2)
	centralMeridian := float64(zone*6 - 183)

	x := point[0] - mgaFalseEasting
	y := point[1] - mgaFalseNorthing

	mu := y / mgaScaleFactor / (a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1, tanPhi1 := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := a / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := a * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * mgaScaleFactor)

	latitude := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*math.Pow(d, 4)/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*math.Pow(d, 6)/720)
	longitude := (d -
		(1+2*t1+c1)*math.Pow(d, 3)/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*math.Pow(d, 5)/120) / cosPhi1

	return orb.Point{centralMeridian + longitude*180/math.Pi, latitude * 180 / math.Pi}
}

// britishNationalGridToWGS84 takes an easting/northing point and returns lon/lat
func britishNationalGridToWGS84(point orb.Point) (orb.Point, error) {
	gridRef, err := osgridref.ParseOsGridRef(fmt.Sprintf("%.0f,%.0f", point[0], point[1]))
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid grid reference %.0f,%.0f: %w", point[0], point[1], err)
	}

	latitude, longitude := gridRef.ToLatLon()

	return orb.Point{longitude, latitude}, nil
}
