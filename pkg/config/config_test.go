package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/connectivity/pkg/diagnostics"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "connectivity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "locality", config.Suburbs.NameProperty)
	assert.Equal(t, "loc_code", config.Suburbs.CodeProperty)
	assert.Equal(t, "anchor", config.Week.Policy)
	assert.Equal(t, "sparse", config.Output.Policy)
	assert.Equal(t, "adjacent", config.Aggregation.PairMode)
	assert.Equal(t, 8, config.Workers)

	// Long legs are only flagged when asked for
	maxLeg, err := config.MaxLegDuration()
	require.NoError(t, err)
	assert.Zero(t, maxLeg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
dataset:
  source: feeds/gtfs.zip
suburbs:
  path: suburbs.geojson
  crs: EPSG:27700
week:
  anchor: 2026-01-07
  start: sunday
  policy: NEXT
output:
  policy: dense
  directory: out
aggregation:
  pair_mode: downstream
  max_leg_duration: PT2H30M
workers: 2
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "feeds/gtfs.zip", config.Dataset.Source)
	assert.Equal(t, "EPSG:27700", config.Suburbs.CRS)
	// Properties left out of the file keep their defaults
	assert.Equal(t, "locality", config.Suburbs.NameProperty)
	assert.Equal(t, "next", config.Week.Policy)
	assert.Equal(t, "dense", config.Output.Policy)
	assert.Equal(t, "downstream", config.Aggregation.PairMode)
	assert.Equal(t, 2, config.Workers)

	anchor, err := config.AnchorDate(time.Now())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), anchor)

	maxLeg, err := config.MaxLegDuration()
	require.NoError(t, err)
	assert.Equal(t, 150*time.Minute, maxLeg)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "output:\n  policy: sparse\n")

	t.Setenv("CONNECTIVITY_OUTPUT_POLICY", "dense")
	t.Setenv("CONNECTIVITY_WORKERS", "3")
	t.Setenv("CONNECTIVITY_OUTPUT_INDEX", "YES")
	t.Setenv("CONNECTIVITY_ROUTE_FILTER", `Type == "Bus"`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dense", config.Output.Policy)
	assert.Equal(t, 3, config.Workers)
	assert.True(t, config.Output.Index)
	assert.Equal(t, `Type == "Bus"`, config.Aggregation.RouteFilter)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "week policy", content: "week:\n  policy: sometime\n"},
		{name: "output policy", content: "output:\n  policy: matrix\n"},
		{name: "pair mode", content: "aggregation:\n  pair_mode: everything\n"},
		{name: "anchor", content: "week:\n  anchor: 07/01/2026\n"},
		{name: "max leg duration", content: "aggregation:\n  max_leg_duration: six hours\n"},
		{name: "workers", content: "workers: 0\n"},
		{name: "yaml", content: "week: [\n"},
		{name: "environment number", env: map[string]string{"CONNECTIVITY_WORKERS": "many"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for key, value := range test.env {
				t.Setenv(key, value)
			}

			_, err := Load(writeConfig(t, test.content))
			require.Error(t, err)
			assert.True(t, diagnostics.IsConfigurationError(err), err.Error())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, diagnostics.IsConfigurationError(err))
}

func TestAnchorDateToday(t *testing.T) {
	config := Default()
	now := time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC)

	anchor, err := config.AnchorDate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), anchor)
}

func TestParseDuration(t *testing.T) {
	duration, err := parseDuration("field", "")
	require.NoError(t, err)
	assert.Zero(t, duration)

	duration, err = parseDuration("field", "P1D")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, duration)

	_, err = parseDuration("field", "PT0S")
	assert.Error(t, err)
}
