package api

import (
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/database"
	"github.com/travigo/connectivity/pkg/pipeline"
	"github.com/travigo/connectivity/pkg/redis_client"
	"github.com/travigo/connectivity/pkg/summary"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the weekly summary over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path of the YAML configuration file",
				EnvVars: []string{"CONNECTIVITY_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen target for the web server",
			},
			&cli.StringFlag{
				Name:  "source",
				Value: "mongo",
				Usage: "Where rows come from, mongo or run (runs the pipeline once at startup)",
			},
			&cli.StringFlag{
				Name:  "feed",
				Usage: "Path or URL of the GTFS zip when the source is run",
			},
			&cli.StringFlag{
				Name:  "suburbs",
				Usage: "Path of the suburb boundary GeoJSON when the source is run",
			},
			&cli.BoolFlag{
				Name:  "cache",
				Value: true,
				Usage: "Cache responses in Redis",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := pipeline.LoadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("listen") {
				cfg.API.Listen = c.String("listen")
			}

			var store summary.Store
			switch c.String("source") {
			case "mongo":
				if err := database.Connect(cfg.Mongo); err != nil {
					return err
				}
				defer database.Disconnect()

				store = &summary.MongoStore{Collection: database.GetCollection(summary.CollectionName)}
			case "run":
				result, err := pipeline.RunDataset(c.Context, cfg)
				if err != nil {
					return err
				}
				result.Report.Log()

				memoryStore := summary.NewMemoryStore()
				if err := memoryStore.Save(c.Context, result.Rows); err != nil {
					return err
				}
				store = memoryStore
			default:
				return cli.Exit("source must be mongo or run", 1)
			}

			var responseCache *cache.Cache[string]
			if c.Bool("cache") {
				if err := redis_client.Connect(cfg.Redis); err != nil {
					return err
				}

				ttl, err := cfg.CacheTTL()
				if err != nil {
					return err
				}
				responseCache = NewResponseCache(redis_client.Client, ttl)
			}

			log.Info().Str("listen", cfg.API.Listen).Str("source", c.String("source")).Msg("Starting web server")

			return SetupServer(cfg.API.Listen, store, responseCache)
		},
	}
}
