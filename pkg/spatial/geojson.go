package spatial

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/diagnostics"
)

type LoadOptions struct {
	NameProperty string
	CodeProperty string
	// Used when the file does not declare its own crs member
	CRS CRS
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.NameProperty == "" {
		o.NameProperty = "locality"
	}
	if o.CodeProperty == "" {
		o.CodeProperty = "loc_code"
	}
	if o.CRS == "" {
		o.CRS = CRSWGS84
	}

	return o
}

// legacyCRS is the pre RFC 7946 crs member some publishers still emit
type legacyCRS struct {
	CRS *struct {
		Type       string `json:"type"`
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"crs"`
}

func LoadGeoJSONFile(path string, options LoadOptions, report *diagnostics.Report) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.NewConfigurationError(settingSuburbs, "cannot read %s: %s", path, err)
	}

	return LoadGeoJSON(data, options, report)
}

// LoadGeoJSON reads suburbs from a FeatureCollection. Features without a name
// or without a polygon geometry are skipped with a warning.
func LoadGeoJSON(data []byte, options LoadOptions, report *diagnostics.Report) (*Dataset, error) {
	options = options.withDefaults()

	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, diagnostics.NewConfigurationError(settingSuburbs, "invalid GeoJSON: %s", err)
	}

	crs := options.CRS
	var declared legacyCRS
	if err := json.Unmarshal(data, &declared); err == nil && declared.CRS != nil && declared.CRS.Properties.Name != "" {
		crs, err = ParseCRS(declared.CRS.Properties.Name)
		if err != nil {
			return nil, diagnostics.NewConfigurationError(crsSettingSuburbDataset, "%s", err)
		}
	}

	var suburbs []SuburbPolygon
	for index, feature := range featureCollection.Features {
		name := propertyString(feature.Properties, options.NameProperty)
		if name == "" {
			report.Add(diagnostics.SkippedSuburb{Index: index, Reason: fmt.Sprintf("no %s property", options.NameProperty)})
			continue
		}

		switch feature.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			reason := "no geometry"
			if feature.Geometry != nil {
				reason = fmt.Sprintf("%s geometry", feature.Geometry.GeoJSONType())
			}
			report.Add(diagnostics.SkippedSuburb{Index: index, Reason: fmt.Sprintf("%s for %q", reason, name)})
			continue
		}

		suburbs = append(suburbs, NewSuburbPolygon(name, propertyString(feature.Properties, options.CodeProperty), feature.Geometry))
	}

	log.Info().
		Int("features", len(featureCollection.Features)).
		Int("suburbs", len(suburbs)).
		Str("crs", string(crs)).
		Msg("Loaded suburb boundaries")

	return NewDataset(crs, suburbs)
}

// propertyString looks the key up exactly first, then ignoring case
func propertyString(properties geojson.Properties, key string) string {
	value, exists := properties[key]
	if !exists {
		for name, candidate := range properties {
			if strings.EqualFold(name, key) {
				value = candidate
				break
			}
		}
	}
	if value == nil {
		return ""
	}

	switch value := value.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}
