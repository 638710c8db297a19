package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/api/routes"
)

func NewLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		startTime := time.Now()
		err := c.Next()

		msg := "HTTP Request"
		if err != nil {
			msg = err.Error()
		}

		code := c.Response().StatusCode()

		requestLogger := log.With().
			Int("status", code).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("query", string(c.Request().URI().QueryString())).
			Str("cache", string(c.Response().Header.Peek(routes.CacheStatusHeader))).
			Str("ip", c.IP()).
			Dur("latency", time.Since(startTime)).
			Logger()

		switch {
		case code >= fiber.StatusBadRequest && code < fiber.StatusInternalServerError:
			requestLogger.Warn().Msg(msg)
		case code >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg(msg)
		default:
			requestLogger.Debug().Msg(msg)
		}

		return err
	}
}
