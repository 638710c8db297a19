package routes

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/summary"
	"github.com/travigo/connectivity/pkg/util"
)

const CacheStatusHeader = "X-Cache"

var viewGroups = map[string][]string{
	"basic":    {"basic"},
	"detailed": {"basic", "detailed"},
}

type summaryRequest struct {
	query summary.Query
	view  string
}

// cacheKey is the same for requests asking for the same rows in the same view
func (r summaryRequest) cacheKey() string {
	week := ""
	if !r.query.WeekStart.IsZero() {
		week = r.query.WeekStart.Format(util.ISODateFormat)
	}

	return fmt.Sprintf("connectivity/summary/%s/%s/%s/%s/%s", week, r.query.Origin, r.query.Destination, r.query.DayClass, r.view)
}

func parseSummaryRequest(c *fiber.Ctx) (summaryRequest, error) {
	request := summaryRequest{
		query: summary.Query{
			Origin:      c.Query("origin"),
			Destination: c.Query("destination"),
		},
		view: strings.ToLower(c.Query("view", "basic")),
	}

	if _, exists := viewGroups[request.view]; !exists {
		return request, fmt.Errorf("view must be basic or detailed")
	}

	if dayClass := strings.ToLower(c.Query("day_class")); dayClass != "" {
		request.query.DayClass = ctdf.DayClass(dayClass)
		if request.query.DayClass != ctdf.DayClassWeekday && request.query.DayClass != ctdf.DayClassWeekend {
			return request, fmt.Errorf("day_class must be weekday or weekend")
		}
	}

	if week := c.Query("week"); week != "" {
		weekStart, err := util.ParseISODate(week)
		if err != nil {
			return request, err
		}
		request.query.WeekStart = weekStart
	}

	return request, nil
}

func SummaryRouter(router fiber.Router, store summary.Store, responseCache *cache.Cache[string]) {
	router.Get("/", func(c *fiber.Ctx) error {
		request, err := parseSummaryRequest(c)
		if err != nil {
			c.Status(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		ctx := c.UserContext()
		cacheKey := request.cacheKey()

		if responseCache != nil {
			if cached, err := responseCache.Get(ctx, cacheKey); err == nil {
				c.Set(CacheStatusHeader, "HIT")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.SendString(cached)
			}
		}

		rows, err := store.Find(ctx, request.query)
		if err != nil {
			log.Error().Err(err).Msg("Failed to query summary rows")

			c.Status(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Could not read the summary store",
			})
		}
		if rows == nil {
			rows = []ctdf.WeeklySummaryRow{}
		}

		rowsReduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: viewGroups[request.view],
		}, rows)
		if err != nil {
			c.Status(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Sherrif could not reduce summary rows",
			})
		}

		body, err := json.Marshal(rowsReduced)
		if err != nil {
			return err
		}

		if responseCache != nil {
			if err := responseCache.Set(ctx, cacheKey, string(body)); err != nil {
				log.Error().Err(err).Str("key", cacheKey).Msg("Failed to cache summary response")
			}
		}

		c.Set(CacheStatusHeader, "MISS")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(body)
	})
}
