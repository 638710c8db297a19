package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/util"
)

func IndexName(row *ctdf.WeeklySummaryRow) string {
	return fmt.Sprintf("suburb-connectivity-%s", row.WeekStart.Format(util.ISODateFormat))
}

// DocumentID is stable so reindexing a week replaces its documents
func DocumentID(row *ctdf.WeeklySummaryRow) string {
	return fmt.Sprintf("%s/%s/%s/%s", row.WeekStart.Format(util.ISODateFormat), row.OriginSuburb, row.DestinationSuburb, row.DayClass)
}

// Index bulk indexes the rows and waits for the indexer to flush
func Index(ctx context.Context, client *elasticsearch.Client, rows []ctdf.WeeklySummaryRow) error {
	bulkIndexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: client,
	})
	if err != nil {
		return err
	}

	var failed atomic.Int64
	for i := range rows {
		row := &rows[i]
		document, err := json.Marshal(row)
		if err != nil {
			return err
		}

		indexName := IndexName(row)
		err = bulkIndexer.Add(ctx, esutil.BulkIndexerItem{
			Index:      indexName,
			Action:     "index",
			DocumentID: DocumentID(row),
			Body:       bytes.NewReader(document),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					log.Error().Err(err).Str("indexName", indexName).Msg("Failed to index document")
				} else {
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index document")
				}
			},
		})
		if err != nil {
			return err
		}
	}

	if err := bulkIndexer.Close(ctx); err != nil {
		return err
	}

	stats := bulkIndexer.Stats()
	log.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("failed", stats.NumFailed).
		Msg("Indexed summary rows")

	if failed.Load() > 0 {
		return fmt.Errorf("%d summary rows failed to index", failed.Load())
	}

	return nil
}
