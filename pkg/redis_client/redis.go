package redis_client

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/travigo/connectivity/pkg/config"
)

var Client *redis.Client

func Connect(cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	statusCmd := client.Ping(context.Background())
	if err := statusCmd.Err(); err != nil {
		return err
	}

	Client = client

	return nil
}
