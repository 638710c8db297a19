package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/api/stats"
	"github.com/travigo/connectivity/pkg/summary"
)

func StatsRouter(router fiber.Router, store summary.Store) {
	router.Get("/", func(c *fiber.Ctx) error {
		recordsStats, err := stats.Compute(c.UserContext(), store)
		if err != nil {
			log.Error().Err(err).Msg("Failed to compute stats")

			c.Status(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Could not read the summary store",
			})
		}

		return c.JSON(recordsStats)
	})
}
