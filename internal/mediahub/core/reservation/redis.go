package reservation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mediahub/pkg/logger"
)

const keyPrefix = "mediahub:upload:"

// releaseScript deletes the key only while it still holds our token, so an
// expired reservation taken over by another upload is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ Reserver = &Redis{}

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
	TTL      time.Duration
}

// Redis shares reservations between server instances through SETNX keys
// that expire after TTL in case a holder dies.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedis(cfg RedisConfig) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Redis{
		rdb:    rdb,
		ttl:    cfg.TTL,
		logger: logger.WithFields("component", "redis-reservation", "addr", cfg.Addr),
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) Reserve(ctx context.Context, name string) (func(), bool, error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("reserve %s: %w", name, err)
	}
	if !ok {
		r.logger.Debug("reservation held by another upload", "name", name)
		return nil, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// the upload context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.rdb, []string{key}, token).Err(); err != nil {
				r.logger.Warn("failed to release reservation", "name", name, "error", err)
			}
		})
	}
	return release, true, nil
}
