package cache

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisAddr = "localhost:6379"

// Client holds only rate-limit counters; it is nil when redis is unreachable.
var Client *redis.Client

// InitRedis connects the shared client. A failed ping leaves Client nil so callers
// run without shared rate limiting instead of refusing to start.
func InitRedis(ctx context.Context) {
	opts, err := redisOptions(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL, rate limiting disabled: %v", err)
		Client = nil
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client := redis.NewClient(opts)
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: failed to connect to Redis at %s, rate limiting disabled: %v", opts.Addr, err)
		_ = client.Close()
		Client = nil
		return
	}
	Client = client
	log.Printf("Connected to Redis at %s", opts.Addr)
}

// redisOptions accepts either a bare host:port or a redis:// / rediss:// URL.
func redisOptions(raw string) (*redis.Options, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &redis.Options{Addr: defaultRedisAddr}, nil
	}
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: raw}, nil
}
