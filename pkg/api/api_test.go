package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/connectivity/pkg/api/routes"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/summary"
)

var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func seconds(value float64) *float64 {
	return &value
}

func testRows() []ctdf.WeeklySummaryRow {
	return []ctdf.WeeklySummaryRow{
		{
			WeekStart: monday, OriginSuburb: "Hill", OriginCode: "H", DestinationSuburb: "Park", DestinationCode: "P",
			DayClass: ctdf.DayClassWeekday,
		},
		{
			WeekStart: monday, OriginSuburb: "Park", OriginCode: "P", DestinationSuburb: "Hill", DestinationCode: "H",
			DayClass: ctdf.DayClassWeekday, TripCount: 5, MeanTravelTime: seconds(1200), RouteCoverage: 1,
			MedianTravelTime: seconds(1200), MinTravelTime: seconds(1200), MaxTravelTime: seconds(1200),
			TripsPerDay: 1, TransportTypes: []ctdf.TransportType{ctdf.TransportTypeBus},
		},
		{
			WeekStart: monday, OriginSuburb: "Park", OriginCode: "P", DestinationSuburb: "Hill", DestinationCode: "H",
			DayClass: ctdf.DayClassWeekend,
		},
	}
}

func testStore(t *testing.T) *summary.MemoryStore {
	t.Helper()

	store := summary.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), testRows()))

	return store
}

type response struct {
	status int
	cache  string
	body   []byte
}

func get(t *testing.T, app *fiber.App, target string) response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return response{
		status: resp.StatusCode,
		cache:  resp.Header.Get(routes.CacheStatusHeader),
		body:   body,
	}
}

func decodeRows(t *testing.T, body []byte) []map[string]any {
	t.Helper()

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(body, &rows))

	return rows
}

func TestSummaryBasicView(t *testing.T) {
	app := NewApp(testStore(t), nil)

	resp := get(t, app, "/summary?origin=Park&day_class=weekday")
	require.Equal(t, fiber.StatusOK, resp.status)

	rows := decodeRows(t, resp.body)
	require.Len(t, rows, 1)
	assert.Equal(t, "Park", rows[0]["origin_suburb"])
	assert.Equal(t, "Hill", rows[0]["destination_suburb"])
	assert.Equal(t, 5.0, rows[0]["trip_count"])
	assert.Equal(t, 1200.0, rows[0]["mean_travel_time_seconds"])
	assert.NotContains(t, rows[0], "median_travel_time_seconds")
	assert.NotContains(t, rows[0], "origin_code")
}

func TestSummaryDetailedView(t *testing.T) {
	app := NewApp(testStore(t), nil)

	resp := get(t, app, "/summary?origin=Park&destination=Hill&view=detailed&week=2026-01-05")
	require.Equal(t, fiber.StatusOK, resp.status)

	rows := decodeRows(t, resp.body)
	require.Len(t, rows, 2)
	assert.Equal(t, "P", rows[0]["origin_code"])
	assert.Equal(t, 1200.0, rows[0]["median_travel_time_seconds"])
	assert.Equal(t, []any{"Bus"}, rows[0]["transport_types"])

	// Pairs without trips have null travel times
	assert.Equal(t, "weekend", rows[1]["day_class"])
	assert.Nil(t, rows[1]["mean_travel_time_seconds"])
}

func TestSummaryEmptyResult(t *testing.T) {
	app := NewApp(testStore(t), nil)

	resp := get(t, app, "/summary?week=2026-02-02")
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.JSONEq(t, "[]", string(resp.body))
}

func TestSummaryBadRequests(t *testing.T) {
	app := NewApp(testStore(t), nil)

	for _, target := range []string{
		"/summary?day_class=holiday",
		"/summary?view=everything",
		"/summary?week=05-01-2026",
	} {
		resp := get(t, app, target)
		assert.Equal(t, fiber.StatusBadRequest, resp.status, target)
	}
}

func TestSummaryCache(t *testing.T) {
	redisServer := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	defer client.Close()

	store := testStore(t)
	app := NewApp(store, NewResponseCache(client, time.Minute))

	resp := get(t, app, "/summary?origin=Hill")
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "MISS", resp.cache)
	require.Len(t, decodeRows(t, resp.body), 1)

	// A new row is not visible until the cached response expires
	newRow := testRows()[0]
	newRow.DestinationSuburb = "Vale"
	require.NoError(t, store.Save(context.Background(), []ctdf.WeeklySummaryRow{newRow}))

	resp = get(t, app, "/summary?origin=Hill")
	assert.Equal(t, "HIT", resp.cache)
	assert.Len(t, decodeRows(t, resp.body), 1)

	redisServer.FastForward(2 * time.Minute)

	resp = get(t, app, "/summary?origin=Hill")
	assert.Equal(t, "MISS", resp.cache)
	assert.Len(t, decodeRows(t, resp.body), 2)
}

func TestVersionAndStats(t *testing.T) {
	app := NewApp(testStore(t), nil)

	resp := get(t, app, "/version")
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), routes.Version)

	resp = get(t, app, "/stats")
	require.Equal(t, fiber.StatusOK, resp.status)

	var recordsStats map[string]any
	require.NoError(t, json.Unmarshal(resp.body, &recordsStats))
	assert.Equal(t, 3.0, recordsStats["Rows"])
	assert.Equal(t, 1.0, recordsStats["ConnectedPairs"])
	assert.Equal(t, 2.0, recordsStats["Suburbs"])
	assert.Equal(t, 5.0, recordsStats["Trips"])
}
