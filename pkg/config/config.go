package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	iso8601 "github.com/senseyeio/duration"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/util"
	"gopkg.in/yaml.v3"
)

const EnvironmentPrefix = "CONNECTIVITY_"

type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Suburbs     SuburbsConfig     `yaml:"suburbs"`
	Week        WeekConfig        `yaml:"week"`
	Spatial     SpatialConfig     `yaml:"spatial"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Output      OutputConfig      `yaml:"output"`
	Workers     int               `yaml:"workers" validate:"gte=1,lte=1024"`

	Mongo   MongoConfig   `yaml:"mongo"`
	Elastic ElasticConfig `yaml:"elastic"`
	Redis   RedisConfig   `yaml:"redis"`
	API     APIConfig     `yaml:"api"`
}

type DatasetConfig struct {
	// Source is a local path or an http(s) URL of a GTFS zip
	Source   string `yaml:"source"`
	Name     string `yaml:"name"`
	Registry string `yaml:"registry"`
}

type SuburbsConfig struct {
	Path         string `yaml:"path"`
	NameProperty string `yaml:"name_property" validate:"required"`
	CodeProperty string `yaml:"code_property"`
	CRS          string `yaml:"crs"`
}

type WeekConfig struct {
	// Anchor is YYYY-MM-DD or "today"
	Anchor string `yaml:"anchor" validate:"required"`
	Start  string `yaml:"start"`
	Policy string `yaml:"policy" validate:"omitempty,oneof=anchor next on-or-after"`
}

type SpatialConfig struct {
	CRS string `yaml:"crs"`
}

type AggregationConfig struct {
	PairMode string `yaml:"pair_mode" validate:"omitempty,oneof=adjacent downstream"`
	// Legs longer than this are flagged and leave the trip counts, empty disables the check
	MaxLegDuration string `yaml:"max_leg_duration"`
	RouteFilter    string `yaml:"route_filter"`
}

type OutputConfig struct {
	Directory string `yaml:"directory" validate:"required"`
	Policy    string `yaml:"policy" validate:"omitempty,oneof=sparse dense"`
	Store     string `yaml:"store" validate:"omitempty,oneof=none mongo"`
	Index     bool   `yaml:"index"`
}

type MongoConfig struct {
	Connection string `yaml:"connection"`
	Database   string `yaml:"database"`
}

type ElasticConfig struct {
	Address  string `yaml:"address"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Database int    `yaml:"database" validate:"gte=0"`
}

type APIConfig struct {
	Listen   string `yaml:"listen" validate:"required"`
	CacheTTL string `yaml:"cache_ttl"`
}

func Default() *Config {
	return &Config{
		Suburbs: SuburbsConfig{
			NameProperty: "locality",
			CodeProperty: "loc_code",
		},
		Week: WeekConfig{
			Anchor: "today",
			Start:  "monday",
			Policy: "anchor",
		},
		Spatial: SpatialConfig{
			CRS: "EPSG:4326",
		},
		Aggregation: AggregationConfig{
			PairMode: "adjacent",
		},
		Output: OutputConfig{
			Directory: "output",
			Policy:    "sparse",
			Store:     "none",
		},
		Workers: 8,
		Mongo: MongoConfig{
			Connection: "mongodb://localhost:27017/",
			Database:   "connectivity",
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		API: APIConfig{
			Listen:   ":8080",
			CacheTTL: "PT5M",
		},
	}
}

// Load reads the .env file if there is one, the YAML file at path if it is set,
// and then the CONNECTIVITY_ environment overrides
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, diagnostics.NewConfigurationError("config", "%s", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, diagnostics.NewConfigurationError("config", "invalid YAML in %s: %s", path, err)
		}
	}

	if err := config.applyEnvironment(util.GetPrefixedEnvironmentVariables(EnvironmentPrefix)); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log.Logger.GetLevel() <= zerolog.DebugLevel {
		log.Debug().Msg(pretty.Sprint(config.redacted()))
	}

	return config, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	stringFields := map[string]*string{
		"DATASET":                &c.Dataset.Source,
		"DATASET_NAME":           &c.Dataset.Name,
		"DATASET_REGISTRY":       &c.Dataset.Registry,
		"SUBURBS":                &c.Suburbs.Path,
		"SUBURBS_NAME_PROPERTY":  &c.Suburbs.NameProperty,
		"SUBURBS_CODE_PROPERTY":  &c.Suburbs.CodeProperty,
		"SUBURBS_CRS":            &c.Suburbs.CRS,
		"WEEK_ANCHOR":            &c.Week.Anchor,
		"WEEK_START":             &c.Week.Start,
		"WEEK_POLICY":            &c.Week.Policy,
		"CRS":                    &c.Spatial.CRS,
		"PAIR_MODE":              &c.Aggregation.PairMode,
		"MAX_LEG_DURATION":       &c.Aggregation.MaxLegDuration,
		"ROUTE_FILTER":           &c.Aggregation.RouteFilter,
		"OUTPUT_DIRECTORY":       &c.Output.Directory,
		"OUTPUT_POLICY":          &c.Output.Policy,
		"OUTPUT_STORE":           &c.Output.Store,
		"MONGODB_CONNECTION":     &c.Mongo.Connection,
		"MONGODB_DATABASE":       &c.Mongo.Database,
		"ELASTICSEARCH_ADDRESS":  &c.Elastic.Address,
		"ELASTICSEARCH_USERNAME": &c.Elastic.Username,
		"ELASTICSEARCH_PASSWORD": &c.Elastic.Password,
		"REDIS_ADDRESS":          &c.Redis.Address,
		"REDIS_PASSWORD":         &c.Redis.Password,
		"API_LISTEN":             &c.API.Listen,
		"API_CACHE_TTL":          &c.API.CacheTTL,
	}
	for key, target := range stringFields {
		if value, ok := env[key]; ok {
			*target = value
		}
	}

	ints := map[string]*int{
		"WORKERS":        &c.Workers,
		"REDIS_DATABASE": &c.Redis.Database,
	}
	for key, target := range ints {
		if value, ok := env[key]; ok {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return diagnostics.NewConfigurationError(EnvironmentPrefix+key, "%q is not a number", value)
			}
			*target = parsed
		}
	}

	if value, ok := env["OUTPUT_INDEX"]; ok {
		c.Output.Index = value == "YES" || strings.EqualFold(value, "true")
	}

	return nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	c.Week.Policy = strings.ToLower(c.Week.Policy)
	c.Aggregation.PairMode = strings.ToLower(c.Aggregation.PairMode)
	c.Output.Policy = strings.ToLower(c.Output.Policy)
	c.Output.Store = strings.ToLower(c.Output.Store)

	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return diagnostics.NewConfigurationError(first.Namespace(), "failed %s validation", first.Tag())
		}
		return diagnostics.NewConfigurationError("config", "%s", err)
	}

	if _, err := c.AnchorDate(time.Now()); err != nil {
		return err
	}
	if _, err := c.MaxLegDuration(); err != nil {
		return err
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}

	return nil
}

// AnchorDate resolves the configured anchor, "today" being the date of now
func (c *Config) AnchorDate(now time.Time) (time.Time, error) {
	if c.Week.Anchor == "" || strings.EqualFold(c.Week.Anchor, "today") {
		return util.DateOnly(now), nil
	}

	date, err := util.ParseISODate(c.Week.Anchor)
	if err != nil {
		return time.Time{}, diagnostics.NewConfigurationError("week.anchor", "%q is not a YYYY-MM-DD date", c.Week.Anchor)
	}

	return date, nil
}

func (c *Config) MaxLegDuration() (time.Duration, error) {
	return parseDuration("aggregation.max_leg_duration", c.Aggregation.MaxLegDuration)
}

func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration("api.cache_ttl", c.API.CacheTTL)
}

// parseDuration reads an ISO 8601 duration, empty meaning no limit
func parseDuration(field string, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	duration, err := iso8601.ParseISO8601(value)
	if err != nil {
		return 0, diagnostics.NewConfigurationError(field, "%q is not an ISO 8601 duration", value)
	}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	parsed := duration.Shift(start).Sub(start)
	if parsed <= 0 {
		return 0, diagnostics.NewConfigurationError(field, "%q must be positive", value)
	}

	return parsed, nil
}

func (c *Config) redacted() Config {
	copied := *c
	if copied.Elastic.Password != "" {
		copied.Elastic.Password = "***"
	}
	if copied.Redis.Password != "" {
		copied.Redis.Password = "***"
	}

	return copied
}
