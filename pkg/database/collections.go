package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/summary"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createSuburbConnectivityIndexes()
}

func createSuburbConnectivityIndexes() {
	connectivityCollection := GetCollection(summary.CollectionName)
	connectivityIndex := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "weekstart", Value: 1},
				{Key: "originsuburb", Value: 1},
				{Key: "destinationsuburb", Value: 1},
				{Key: "dayclass", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "destinationsuburb", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := connectivityCollection.Indexes().CreateMany(context.Background(), connectivityIndex, opts)
	if err != nil {
		log.Error().Err(err).Str("collection", summary.CollectionName).Msg("Failed to create indexes")
	}
}
