package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var MongoGlobalInstance *MongoInstance

func Connect(cfg config.MongoConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return err
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return err
	}

	MongoGlobalInstance = &MongoInstance{
		Client:   client,
		Database: client.Database(cfg.Database),
	}

	createIndexes()

	log.Info().Str("database", cfg.Database).Msg("Connected to MongoDB")

	return nil
}

func Disconnect() {
	if MongoGlobalInstance == nil {
		return
	}

	if err := MongoGlobalInstance.Client.Disconnect(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
	}
}

func GetCollection(collectionName string) *mongo.Collection {
	return MongoGlobalInstance.Database.Collection(collectionName)
}
