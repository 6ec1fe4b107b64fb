package redis

import (
	"context"
	"sync"

	"github.com/fakhrymubarak/weather-now/internal/config"
	redisv9 "github.com/redis/go-redis/v9"
)

var (
	client *redisv9.Client
	once   sync.Once
)

// GetClient returns the process-wide Redis client holding geolocation sessions.
func GetClient() *redisv9.Client {
	once.Do(func() {
		client = redisv9.NewClient(&redisv9.Options{
			Addr: config.GetRedisAddr(),
		})
	})
	return client
}

// Ping checks that the session store is reachable.
func Ping(ctx context.Context) error {
	return GetClient().Ping(ctx).Err()
}

// ResetClientForTest resets the Redis client singleton. Use only in tests.
func ResetClientForTest() {
	once = sync.Once{}
	client = nil
}
