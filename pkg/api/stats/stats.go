package stats

import (
	"context"
	"time"

	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/summary"
	"github.com/travigo/connectivity/pkg/util"
)

type RecordsStats struct {
	Rows           int
	ConnectedPairs int
	Suburbs        int
	Trips          int
	Weeks          []string

	GeneratedAt time.Time
}

// Compute counts what the store currently serves. A pair counts as connected
// when it has at least one trip on either class of day.
func Compute(ctx context.Context, store summary.Store) (*RecordsStats, error) {
	rows, err := store.Find(ctx, summary.Query{})
	if err != nil {
		return nil, err
	}

	return FromRows(rows), nil
}

func FromRows(rows []ctdf.WeeklySummaryRow) *RecordsStats {
	recordsStats := &RecordsStats{
		Rows:        len(rows),
		GeneratedAt: time.Now(),
	}

	pairs := map[string]bool{}
	suburbs := map[string]bool{}
	weeks := map[string]bool{}

	for _, row := range rows {
		suburbs[row.OriginSuburb] = true
		suburbs[row.DestinationSuburb] = true

		week := row.WeekStart.Format(util.ISODateFormat)
		if !weeks[week] {
			weeks[week] = true
			recordsStats.Weeks = append(recordsStats.Weeks, week)
		}

		if row.TripCount > 0 {
			pairs[week+"\x00"+row.OriginSuburb+"\x00"+row.DestinationSuburb] = true
		}
		recordsStats.Trips += row.TripCount
	}

	recordsStats.ConnectedPairs = len(pairs)
	recordsStats.Suburbs = len(suburbs)

	return recordsStats
}
