package api

import (
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/connectivity/pkg/api/routes"
	"github.com/travigo/connectivity/pkg/summary"
)

// NewApp builds the web app serving the rows of store. responseCache may be
// nil, responses are then always read from the store.
func NewApp(store summary.Store, responseCache *cache.Cache[string]) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	webApp.Get("version", routes.APIVersion)

	routes.SummaryRouter(webApp.Group("/summary"), store, responseCache)
	routes.StatsRouter(webApp.Group("/stats"), store)

	return webApp
}

func SetupServer(listen string, store summary.Store, responseCache *cache.Cache[string]) error {
	return NewApp(store, responseCache).Listen(listen)
}
