package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/api"
	"github.com/travigo/connectivity/pkg/pipeline"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	// Logging flags may live in the .env file
	_ = godotenv.Load()

	if os.Getenv("CONNECTIVITY_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("CONNECTIVITY_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "connectivity",
		Description: "Weekly suburb to suburb public transport connectivity from GTFS schedules",

		Commands: append(pipeline.RegisterCLI(), api.RegisterCLI()),
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
