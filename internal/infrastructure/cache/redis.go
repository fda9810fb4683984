// Package cache provides the Redis-backed TTL cache for geocoded bus
// stops, so repeat dashboard polls do not hammer the geocoder.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/internal/domain/models"
	"github.com/campustransit/farebeacon/pkg/config"
)

type locationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewLocationCache connects to Redis and returns the cache. The connection
// is verified up front so a misconfigured address fails at startup.
func NewLocationCache(cfg config.RedisConfig, logger zerolog.Logger) (interfaces.LocationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.LocationTTL
	if ttl == 0 {
		ttl = time.Minute
	}

	return &locationCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *locationCache) GetLocation(ctx context.Context, key string) (*models.Location, error) {
	data, err := c.client.Get(ctx, locationKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached location: %w", err)
	}

	var loc models.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached location: %w", err)
	}
	return &loc, nil
}

func (c *locationCache) SetLocation(ctx context.Context, key string, loc *models.Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	if err := c.client.Set(ctx, locationKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache location: %w", err)
	}
	return nil
}

func locationKey(key string) string {
	return "bus_location:" + key
}
