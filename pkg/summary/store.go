package summary

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/ctdf"
	"github.com/travigo/connectivity/pkg/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "suburb_connectivity"

// Query selects stored rows, empty fields match everything
type Query struct {
	WeekStart   time.Time
	Origin      string
	Destination string
	DayClass    ctdf.DayClass
}

func (q Query) Filter() bson.M {
	filter := bson.M{}
	if !q.WeekStart.IsZero() {
		filter["weekstart"] = util.DateOnly(q.WeekStart)
	}
	if q.Origin != "" {
		filter["originsuburb"] = q.Origin
	}
	if q.Destination != "" {
		filter["destinationsuburb"] = q.Destination
	}
	if q.DayClass != "" {
		filter["dayclass"] = q.DayClass
	}

	return filter
}

func (q Query) Matches(row *ctdf.WeeklySummaryRow) bool {
	return (q.WeekStart.IsZero() || row.WeekStart.Equal(util.DateOnly(q.WeekStart))) &&
		(q.Origin == "" || row.OriginSuburb == q.Origin) &&
		(q.Destination == "" || row.DestinationSuburb == q.Destination) &&
		(q.DayClass == "" || row.DayClass == q.DayClass)
}

type Store interface {
	Save(ctx context.Context, rows []ctdf.WeeklySummaryRow) error
	Find(ctx context.Context, query Query) ([]ctdf.WeeklySummaryRow, error)
}

// MongoStore keeps one document per week, origin, destination and day class
type MongoStore struct {
	Collection *mongo.Collection
}

func (s *MongoStore) Save(ctx context.Context, rows []ctdf.WeeklySummaryRow) error {
	operations, err := WriteModels(rows)
	if err != nil {
		return err
	}
	if len(operations) == 0 {
		return nil
	}

	result, err := s.Collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return err
	}

	log.Info().
		Int64("upserted", result.UpsertedCount).
		Int64("modified", result.ModifiedCount).
		Str("collection", s.Collection.Name()).
		Msg("Stored summary rows")

	return nil
}

func (s *MongoStore) Find(ctx context.Context, query Query) ([]ctdf.WeeklySummaryRow, error) {
	cursor, err := s.Collection.Find(ctx, query.Filter(), options.Find().SetSort(bson.D{
		{Key: "originsuburb", Value: 1},
		{Key: "destinationsuburb", Value: 1},
		{Key: "dayclass", Value: -1},
	}))
	if err != nil {
		return nil, err
	}

	var rows []ctdf.WeeklySummaryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// WriteModels builds the upserts for the rows
func WriteModels(rows []ctdf.WeeklySummaryRow) ([]mongo.WriteModel, error) {
	operations := make([]mongo.WriteModel, 0, len(rows))

	for _, row := range rows {
		bsonRep, err := bson.Marshal(bson.M{"$set": row})
		if err != nil {
			return nil, err
		}

		updateModel := mongo.NewUpdateOneModel()
		updateModel.SetFilter(Query{
			WeekStart:   row.WeekStart,
			Origin:      row.OriginSuburb,
			Destination: row.DestinationSuburb,
			DayClass:    row.DayClass,
		}.Filter())
		updateModel.SetUpdate(bsonRep)
		updateModel.SetUpsert(true)

		operations = append(operations, updateModel)
	}

	return operations, nil
}

// MemoryStore serves rows of a run that was never persisted
type MemoryStore struct {
	mutex sync.RWMutex
	rows  map[string]ctdf.WeeklySummaryRow
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: map[string]ctdf.WeeklySummaryRow{},
	}
}

func (s *MemoryStore) Save(_ context.Context, rows []ctdf.WeeklySummaryRow) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, row := range rows {
		key := row.WeekStart.Format(util.ISODateFormat) + "\x00" + row.Key()
		if _, exists := s.rows[key]; !exists {
			s.order = append(s.order, key)
		}
		s.rows[key] = row
	}

	return nil
}

func (s *MemoryStore) Find(_ context.Context, query Query) ([]ctdf.WeeklySummaryRow, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var rows []ctdf.WeeklySummaryRow
	for _, key := range s.order {
		row := s.rows[key]
		if query.Matches(&row) {
			rows = append(rows, row)
		}
	}

	return rows, nil
}
