package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/config"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/database"
	"github.com/travigo/connectivity/pkg/diagnostics"
	"github.com/travigo/connectivity/pkg/elastic_client"
	"github.com/travigo/connectivity/pkg/feedsource"
	"github.com/travigo/connectivity/pkg/summary"
	"github.com/travigo/connectivity/pkg/util"
	"github.com/urfave/cli/v2"
)

var runFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path of the YAML configuration file",
		EnvVars: []string{"CONNECTIVITY_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "dataset",
		Usage: "Identifier of a dataset in the registry",
	},
	&cli.StringFlag{
		Name:  "feed",
		Usage: "Path or URL of the GTFS zip",
	},
	&cli.StringFlag{
		Name:  "suburbs",
		Usage: "Path of the suburb boundary GeoJSON",
	},
	&cli.StringFlag{
		Name:  "week",
		Usage: "Anchor date of the target week as YYYY-MM-DD",
	},
}

func RegisterCLI() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "summary",
			Usage: "Build the weekly suburb to suburb connectivity summary",
			Flags: append([]cli.Flag{
				&cli.StringFlag{
					Name:  "output",
					Usage: "Directory the CSV files are written to",
				},
				&cli.StringFlag{
					Name:  "policy",
					Usage: "sparse or dense",
				},
				&cli.StringFlag{
					Name:  "store",
					Usage: "Persist the summary rows (none or mongo)",
				},
				&cli.BoolFlag{
					Name:  "index",
					Usage: "Index the summary rows into Elasticsearch",
				},
			}, runFlags...),
			Action: func(c *cli.Context) error {
				cfg, err := LoadConfig(c)
				if err != nil {
					return err
				}

				ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
				defer stop()

				result, err := RunDataset(ctx, cfg)
				if err != nil {
					return err
				}

				if err := result.Export(cfg.Output.Directory); err != nil {
					return err
				}

				if err := Publish(ctx, cfg, result.Rows); err != nil {
					return err
				}

				result.Report.Log()

				return nil
			},
		},
		{
			Name:  "stops",
			Usage: "Write the suburb each stop of the feed falls in",
			Flags: runFlags,
			Action: func(c *cli.Context) error {
				cfg, err := LoadConfig(c)
				if err != nil {
					return err
				}

				options, err := OptionsFromConfig(cfg, time.Now())
				if err != nil {
					return err
				}

				return withDataset(c.Context, cfg, func(input Input) error {
					prepared, err := Prepare(input, options)
					if err != nil {
						return err
					}

					feed, err := LoadFeed(input.FeedPath)
					if err != nil {
						return err
					}

					stops := prepared.Resolver.AssignAll(feed.SortedStops(), options.Workers, prepared.Report)
					if err := summary.WriteStopSuburbs(os.Stdout, stops.Assignments()); err != nil {
						return err
					}

					prepared.Report.Log()

					return nil
				})
			},
		},
		{
			Name:  "week",
			Usage: "Show the target week and the services running on each date",
			Flags: runFlags,
			Action: func(c *cli.Context) error {
				cfg, err := LoadConfig(c)
				if err != nil {
					return err
				}

				options, err := OptionsFromConfig(cfg, time.Now())
				if err != nil {
					return err
				}

				return withDataset(c.Context, cfg, func(input Input) error {
					prepared, err := Prepare(input, options)
					if err != nil {
						return err
					}

					feed, err := LoadFeed(input.FeedPath)
					if err != nil {
						return err
					}

					fmt.Printf("Week %s\n", prepared.Week)
					for _, day := range ResolveServices(feed, prepared.Week, options.Workers, prepared.Report) {
						fmt.Printf("%s %-9s %-7s %d services\n",
							day.Date.Format(util.ISODateFormat), day.Date.Weekday(), ctdf.DayClassOf(day.Date), day.Active.Len())
					}

					prepared.Report.Log()

					return nil
				})
			},
		},
	}
}

// LoadConfig reads the configuration file and applies the command line flags over it
func LoadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("dataset") {
		cfg.Dataset.Name = c.String("dataset")
	}
	if c.IsSet("feed") {
		cfg.Dataset.Source = c.String("feed")
	}
	if c.IsSet("suburbs") {
		cfg.Suburbs.Path = c.String("suburbs")
	}
	if c.IsSet("week") {
		cfg.Week.Anchor = c.String("week")
	}
	if c.IsSet("output") {
		cfg.Output.Directory = c.String("output")
	}
	if c.IsSet("policy") {
		cfg.Output.Policy = c.String("policy")
	}
	if c.IsSet("store") {
		cfg.Output.Store = c.String("store")
	}
	if c.IsSet("index") {
		cfg.Output.Index = c.Bool("index")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolveDataset picks the configured registry dataset, or builds one from the
// feed and suburb paths
func ResolveDataset(cfg *config.Config) (feedsource.DataSet, error) {
	if cfg.Dataset.Name == "" {
		return feedsource.DataSet{
			Identifier: "local",
			Source:     cfg.Dataset.Source,
			Suburbs:    cfg.Suburbs.Path,
		}, nil
	}

	registryDirectory := cfg.Dataset.Registry
	if registryDirectory == "" {
		registryDirectory = feedsource.DefaultRegistryDirectory
	}

	registered, err := feedsource.LoadRegistry(registryDirectory)
	if err != nil {
		return feedsource.DataSet{}, err
	}

	dataset, err := feedsource.GetDataset(registered, cfg.Dataset.Name)
	if err != nil {
		return feedsource.DataSet{}, err
	}

	if cfg.Suburbs.Path != "" {
		dataset.Suburbs = cfg.Suburbs.Path
	}

	return dataset, nil
}

func withDataset(ctx context.Context, cfg *config.Config, run func(input Input) error) error {
	dataset, err := ResolveDataset(cfg)
	if err != nil {
		return err
	}

	if dataset.Source == "" {
		return fmt.Errorf("no GTFS feed set, use --feed or --dataset")
	}

	log.Info().Str("dataset", dataset.Identifier).Str("source", dataset.Source).Msg("Opening dataset")

	source, err := feedsource.NewDownloader().Open(ctx, dataset)
	if err != nil {
		return err
	}
	defer source.Close()

	return run(Input{
		FeedPath:    source.Path,
		SuburbsPath: dataset.Suburbs,
	})
}

// RunDataset runs the pipeline over the configured dataset
func RunDataset(ctx context.Context, cfg *config.Config) (*Result, error) {
	options, err := OptionsFromConfig(cfg, time.Now())
	if err != nil {
		return nil, err
	}

	var result *Result
	err = withDataset(ctx, cfg, func(input Input) error {
		var err error
		result, err = Run(ctx, input, options)
		return err
	})

	return result, err
}

// Publish stores and indexes the rows when the configuration asks for it
func Publish(ctx context.Context, cfg *config.Config, rows []ctdf.WeeklySummaryRow) error {
	if cfg.Output.Store == "mongo" {
		if err := database.Connect(cfg.Mongo); err != nil {
			return err
		}
		defer database.Disconnect()

		store := &summary.MongoStore{Collection: database.GetCollection(summary.CollectionName)}
		if err := store.Save(ctx, rows); err != nil {
			return diagnostics.WrapStage(diagnostics.StageExport, err)
		}
	}

	if cfg.Output.Index {
		if err := elastic_client.Connect(cfg.Elastic, true); err != nil {
			return err
		}

		if err := summary.Index(ctx, elastic_client.Client, rows); err != nil {
			return diagnostics.WrapStage(diagnostics.StageExport, err)
		}
	}

	return nil
}
