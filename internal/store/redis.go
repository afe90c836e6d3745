package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

const (
	keyPrefix      = "form-scanner:scan:"
	connectTimeout = 5 * time.Second
)

// ErrEmptyAddress is returned when no Redis address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Redis stores scans as JSON with a per-key expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps a connected client. A zero ttl uses DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Key returns the Redis key for a page URL. URLs are hashed into a
// name-based UUID to keep keys short and free of separators.
func Key(pageURL string) string {
	return keyPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageURL)).String()
}

// Save implements Store.
func (r *Redis) Save(ctx context.Context, scan *domain.PageScan) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal scan: %w", err)
	}
	if err := r.client.Set(ctx, Key(scan.PageURL), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save scan: %w", err)
	}
	return nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, pageURL string) (*domain.PageScan, error) {
	data, err := r.client.Get(ctx, Key(pageURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}

	var scan domain.PageScan
	if err := json.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("unmarshal scan: %w", err)
	}
	return &scan, nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, pageURL string) error {
	if err := r.client.Del(ctx, Key(pageURL)).Err(); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
